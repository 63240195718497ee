package reform

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/legislation"
	"github.com/incidence-dev/incidence/internal/naming"
	"github.com/incidence-dev/incidence/internal/stats"
)

const (
	paramCarbonGas         = "taxe_carbone.gaz"
	paramCarbonElectricity = "taxe_carbone.electricite"
)

func carbone(name string) string {
	return naming.ReformVariable(name, KeyTaxeCarbone)
}

// TaxeCarbone adds a carbon levy on the variable part of gas and electricity
// prices. Electricity contracts are not imputed to households consuming less
// than the cheapest fixed tariff.
func TaxeCarbone() engine.Reform {
	return engine.Reform{
		Key:  KeyTaxeCarbone,
		Name: "Taxe carbone sur le gaz et l'électricité",
		Apply: func(s *engine.System) error {
			start := legislation.Date(2014)
			if err := addParameter(s.Parameters, paramCarbonGas, "Surcroît de prix du gaz (en euros par kWh)", "currency",
				start, decimal.RequireFromString("0.241").Mul(decimal.RequireFromString("0.0446"))); err != nil {
				return err
			}
			if err := addParameter(s.Parameters, paramCarbonElectricity, "Surcroît de prix de l'électricité (en euros par kWh)", "currency",
				start, decimal.RequireFromString("0.0035")); err != nil {
				return err
			}

			vars := []engine.Variable{
				engine.Always(carbone("depenses_gaz_ville_ajustees"), "Dépenses en gaz après réaction à la réforme - taxe carbone",
					carbonGas),
				engine.Always(carbone("depenses_electricite_ajustees"), "Dépenses en électricité après réaction à la réforme - taxe carbone",
					carbonElectricity),
				engine.Always(carbone("depenses_energies_logement_ajustees"), "Dépenses en énergies dans le logement après la réforme - taxe carbone",
					sumOf(carbone("depenses_gaz_ville_ajustees"), carbone("depenses_electricite_ajustees"),
						"depenses_gaz_liquefie", "depenses_combustibles_liquides", "depenses_combustibles_solides",
						"depenses_energie_thermique")),
			}
			for _, v := range vars {
				if err := s.Put(v); err != nil {
					return fmt.Errorf("registering %s: %w", v.Name, err)
				}
			}
			return nil
		},
	}
}

// variablePartAdjusted adjusts the variable part of an energy bill to a
// levy per unit and adds back the fixed part.
func variablePartAdjusted(sim *engine.Simulation, levyPath, prefix string) ([]float64, error) {
	p, err := params(sim, levyPath)
	if err != nil {
		return nil, err
	}
	variable, err := sim.Calculate(prefix + "_variables")
	if err != nil {
		return nil, err
	}
	unit, err := sim.Calculate(prefix + "_prix_unitaire")
	if err != nil {
		return nil, err
	}
	elas, err := sim.Calculate("elas_price_2_2")
	if err != nil {
		return nil, err
	}
	fixed, err := sim.Calculate(prefix + "_tarif_fixe")
	if err != nil {
		return nil, err
	}
	return stats.ZeroNonFinite(engine.Add(AdjustVectorPrices(variable, elas, p[0], unit), fixed)), nil
}

func carbonGas(sim *engine.Simulation, _ int) ([]float64, error) {
	return variablePartAdjusted(sim, paramCarbonGas, "depenses_gaz")
}

func carbonElectricity(sim *engine.Simulation, _ int) ([]float64, error) {
	adjusted, err := variablePartAdjusted(sim, paramCarbonElectricity, "depenses_electricite")
	if err != nil {
		return nil, err
	}
	fixed, err := sim.Calculate("depenses_electricite_tarif_fixe")
	if err != nil {
		return nil, err
	}
	baseline, err := sim.Calculate("depenses_electricite")
	if err != nil {
		return nil, err
	}
	if len(fixed) == 0 {
		return adjusted, nil
	}
	minFixed := slices.Min(fixed)
	for i := range adjusted {
		// Spending exactly the cheapest contract keeps the baseline too,
		// it is never zeroed.
		if baseline[i] <= minFixed {
			adjusted[i] = baseline[i]
		}
	}
	return adjusted, nil
}
