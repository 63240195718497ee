package reform

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/legislation"
	"github.com/incidence-dev/incidence/internal/model"
	"github.com/incidence-dev/incidence/internal/taxes"
)

// Reform keys.
const (
	KeyEnergieTest    = "reforme_energie_test"
	KeyOfficielle2019 = "officielle_2019_in_2017"
	KeyTaxeCarbone    = "taxe_carbone"
	KeyAlimentation   = "reforme_alimentation"
)

// Keys returns every shipped reform key, sorted.
func Keys() []string {
	keys := []string{KeyEnergieTest, KeyOfficielle2019, KeyTaxeCarbone, KeyAlimentation}
	sort.Strings(keys)
	return keys
}

// ByKey returns a shipped reform. table is the reference category table,
// used by reforms that regenerate fiscal categories.
func ByKey(key string, table []model.CategoryAssignment, logger *zap.Logger) (engine.Reform, error) {
	switch key {
	case KeyEnergieTest:
		return EnergieTest(), nil
	case KeyOfficielle2019:
		return Officielle2019In2017(), nil
	case KeyTaxeCarbone:
		return TaxeCarbone(), nil
	case KeyAlimentation:
		return Alimentation(table, logger), nil
	default:
		return engine.Reform{}, fmt.Errorf("unknown reform %q", key)
	}
}

// Outputs lists the reform-specific variables worth reporting for key, on
// top of the baseline outputs evaluated under the reform.
func Outputs(key string) []string {
	switch key {
	case KeyEnergieTest:
		return []string{"depenses_diesel_ajustees", "depenses_carburants_ajustees"}
	case KeyOfficielle2019:
		return []string{
			officielle("depenses_carburants_corrigees"),
			officielle("depenses_energies_logement"),
			officielle("gains_tva_total_energies"),
			officielle("total_taxes_energies"),
			officielle("revenu_reforme"),
		}
	case KeyTaxeCarbone:
		return []string{
			carbone("depenses_gaz_ville_ajustees"),
			carbone("depenses_electricite_ajustees"),
			carbone("depenses_energies_logement_ajustees"),
		}
	default:
		return nil
	}
}

// EnergieTest raises the 2014 diesel price by 10 €/hl over its reference.
func EnergieTest() engine.Reform {
	return engine.Reform{
		Key:  KeyEnergieTest,
		Name: "Réforme test de l'imposition indirecte des carburants",
		Apply: func(s *engine.System) error {
			if err := s.Parameters.AddReferences(taxes.FuelPriceNode); err != nil {
				return err
			}
			start := legislation.Date(2014)
			ref, err := s.Parameters.Get(taxes.ParamPriceDiesel+ReferenceSuffix, start)
			if err != nil {
				return err
			}
			p, _ := s.Parameters.Parameter(taxes.ParamPriceDiesel)
			p.Update(start, time.Date(2014, time.December, 31, 0, 0, 0, 0, time.UTC), ref.Add(decimal.NewFromInt(10)))
			return nil
		},
	}
}

func addParameter(tree *legislation.Tree, path, description, unit string, start time.Time, amount decimal.Decimal) error {
	p := legislation.NewParameter(path, description, unit)
	p.Set(start, &amount)
	return tree.Add(p)
}
