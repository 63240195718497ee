package reform

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/incidence-dev/incidence/internal/categories"
	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/model"
)

// FoodCodePrefix selects the products leaving the super-reduced VAT rate.
const FoodCodePrefix = "06.1.1"

// FoodTable returns a copy of table where products under FoodCodePrefix leave
// the super-reduced rate and wine leaves its excise category. Both end up in
// the empty category, which is never aggregated.
func FoodTable(table []model.CategoryAssignment) []model.CategoryAssignment {
	out := slices.Clone(table)
	for i, r := range out {
		switch {
		case r.Category == model.CategoryVATSuperReduced && strings.HasPrefix(r.Code, FoodCodePrefix):
			out[i].Category = ""
		case r.Category == model.CategoryWine:
			out[i].Category = ""
		}
	}
	return out
}

// Alimentation regenerates the fiscal categories from FoodTable(table).
func Alimentation(table []model.CategoryAssignment, logger *zap.Logger) engine.Reform {
	return engine.Reform{
		Key:  KeyAlimentation,
		Name: "Réforme de l'imposition indirecte des biens alimentaires",
		Apply: func(s *engine.System) error {
			_, err := categories.Generate(s, FoodTable(table), categories.Options{
				Reform:    true,
				Reference: table,
				Logger:    logger,
			})
			return err
		},
	}
}
