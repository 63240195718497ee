package naming

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	functionPrefix = "function_"
	pretaxPrefix   = "depenses_ht_"
	productPrefix  = "poste_"
)

// FunctionName returns a dated formula name like "function_1994_2000".
func FunctionName(start, stop int) string {
	return fmt.Sprintf("%s%04d_%04d", functionPrefix, start, stop)
}

// CategoryVariable returns the pre-tax expenditure variable of a fiscal category.
// "tva_taux_reduit" -> "depenses_ht_tva_taux_reduit"
func CategoryVariable(category string) string {
	return pretaxPrefix + category
}

// ProductColumn returns the survey column holding tax-inclusive expenditure
// for a product code. "04.5.1.1.1" -> "poste_04_5_1_1_1"
func ProductColumn(code string) string {
	return productPrefix + slug(code)
}

// ProductVariable returns the pre-tax expenditure variable of a product code.
// "04.5.1.1.1" -> "depenses_ht_poste_04_5_1_1_1"
func ProductVariable(code string) string {
	return pretaxPrefix + ProductColumn(code)
}

// ReformVariable suffixes a variable name with a reform key.
// ("depenses_diesel_corrigees", "officielle_2019_in_2017") -> "depenses_diesel_corrigees_officielle_2019_in_2017"
func ReformVariable(name, reformKey string) string {
	return name + "_" + reformKey
}

// NewRunID returns a fresh identifier for a simulation run.
func NewRunID() string {
	return uuid.NewString()
}

func slug(code string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		default:
			return '_'
		}
	}, strings.TrimSpace(code))
}
