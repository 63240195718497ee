package reform

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/legislation"
	"github.com/incidence-dev/incidence/internal/naming"
	"github.com/incidence-dev/incidence/internal/stats"
	"github.com/incidence-dev/incidence/internal/taxes"
)

// Price increases of the 2018 carbon component, relative to 2016 rates.
const (
	paramDieselIncrease     = "officielle_2019_in_2017.diesel_2019_in_2017"
	paramGasolineIncrease   = "officielle_2019_in_2017.essence_2019_in_2017"
	paramHeatingOilIncrease = "officielle_2019_in_2017.combustibles_liquides_2019_in_2017"
	paramTownGasIncrease    = "officielle_2019_in_2017.gaz_ville_2019_in_2017"
)

// officielle suffixes a variable name with the official reform key.
func officielle(name string) string {
	return naming.ReformVariable(name, KeyOfficielle2019)
}

// Officielle2019In2017 applies the 2019 carbon component to 2017 prices:
// adjusted energy expenditures, TICPE at the increased implicit rate, VAT
// gains, a town-gas levy, and the resulting revenue before redistribution.
func Officielle2019In2017() engine.Reform {
	return engine.Reform{
		Key:  KeyOfficielle2019,
		Name: "Réforme de la fiscalité des énergies de 2018 par rapport aux taux de 2016",
		Apply: func(s *engine.System) error {
			if err := addOfficielleParameters(s.Parameters); err != nil {
				return err
			}
			for _, v := range officielleVariables() {
				if err := s.Put(v); err != nil {
					return fmt.Errorf("registering %s: %w", v.Name, err)
				}
			}
			return nil
		},
	}
}

func addOfficielleParameters(tree *legislation.Tree) error {
	carbon := decimal.RequireFromString("0.0446").Sub(decimal.RequireFromString("0.0305"))
	start := legislation.Date(2016)
	increases := []struct {
		path, description, unit string
		amount                  decimal.Decimal
	}{
		{paramDieselIncrease, "Surcroît de prix du diesel (en euros par hectolitres)", "currency",
			decimal.RequireFromString("2.6").Add(decimal.NewFromInt(266).Mul(carbon))},
		{paramGasolineIncrease, "Surcroît de prix de l'essence (en euros par hectolitres)", "currency",
			decimal.NewFromInt(242).Mul(carbon)},
		{paramHeatingOilIncrease, "Surcroît de prix du fioul domestique (en euros par litre)", "currency",
			decimal.RequireFromString("3.24").Mul(carbon)},
		{paramTownGasIncrease, "Surcroît de prix du gaz (en euros par kWh)", "currency",
			decimal.RequireFromString("0.241").Mul(carbon)},
	}
	for _, inc := range increases {
		if err := addParameter(tree, inc.path, inc.description, inc.unit, start, inc.amount); err != nil {
			return err
		}
	}
	return nil
}

func officielleVariables() []engine.Variable {
	return []engine.Variable{
		engine.Always(officielle("depenses_diesel_corrigees"), "Dépenses en diesel après réaction à la réforme",
			adjustedByIncrease("depenses_diesel", "elas_price_1_1", paramDieselIncrease, taxes.ParamPriceDiesel)),
		engine.Always(officielle("depenses_essence_corrigees"), "Dépenses en essence après réaction à la réforme",
			adjustedByIncrease("depenses_essence", "elas_price_1_1", paramGasolineIncrease, taxes.ParamPriceGasoline)),
		engine.Always(officielle("depenses_carburants_corrigees"), "Dépenses en carburants après réaction à la réforme",
			sumOf(officielle("depenses_diesel_corrigees"), officielle("depenses_essence_corrigees"))),
		engine.Always(officielle("depenses_combustibles_liquides"), "Dépenses en combustibles liquides après réaction à la réforme",
			adjustedByIncrease("depenses_combustibles_liquides", "elas_price_2_2", paramHeatingOilIncrease, taxes.ParamPriceHeatingOil)),
		engine.Always(officielle("depenses_gaz_ville"), "Dépenses en gaz après réaction à la réforme", townGasAdjusted),
		engine.Always(officielle("depenses_energies_logement"), "Dépenses en énergies dans le logement après la réforme", sumOf(
			"depenses_electricite", "tarifs_sociaux_electricite", officielle("depenses_gaz_ville"), "depenses_gaz_liquefie",
			officielle("depenses_combustibles_liquides"), "depenses_combustibles_solides", "depenses_energie_thermique",
		)),

		engine.Always(officielle("diesel_ticpe"), "Montant de TICPE sur le diesel après réforme",
			increasedTICPE(officielle("depenses_diesel_corrigees"), taxes.ParamExciseDiesel, taxes.ParamPriceDiesel, paramDieselIncrease, 1)),
		engine.Always(officielle("essence_ticpe"), "Montant de TICPE sur l'essence après réforme",
			increasedTICPE(officielle("depenses_essence_corrigees"), taxes.ParamExciseGasoline, taxes.ParamPriceGasoline, paramGasolineIncrease, 1)),
		engine.Always(officielle("combustibles_liquides_ticpe"), "Montant de TICPE sur le fioul domestique après réforme",
			increasedTICPE(officielle("depenses_combustibles_liquides"), taxes.ParamExciseHeatingOil, taxes.ParamPriceHeatingOil, paramHeatingOilIncrease, 0.01)),

		engine.Always(officielle("gains_tva_carburants"), "Recettes en TVA sur les carburants de la réforme",
			vatGain(officielle("depenses_carburants_corrigees"), "depenses_carburants")),
		engine.Always(officielle("gains_tva_combustibles_liquides"), "Recettes de la réforme en TVA sur les combustibles liquides",
			vatGain(officielle("depenses_combustibles_liquides"), "depenses_combustibles_liquides")),
		engine.Always(officielle("gains_tva_gaz_ville"), "Recettes de la réforme en TVA sur le gaz naturel",
			vatGain(officielle("depenses_gaz_ville"), "depenses_gaz_ville")),
		engine.Always(officielle("gains_tva_total_energies"), "Recettes de la réforme en TVA sur toutes les énergies", sumOf(
			officielle("gains_tva_carburants"), officielle("gains_tva_combustibles_liquides"), officielle("gains_tva_gaz_ville"),
		)),

		engine.Always(officielle("quantites_gaz_final"), "Quantités de gaz consommées après la réforme", townGasQuantities),
		engine.Always(officielle("taxe_gaz_ville"), "Recettes de la taxe sur la consommation de gaz", townGasLevy),
		engine.Always(officielle("total_taxes_energies"), "Contributions aux taxes sur l'énergie après la réforme", sumOf(
			officielle("diesel_ticpe"), officielle("essence_ticpe"),
			officielle("combustibles_liquides_ticpe"), officielle("taxe_gaz_ville"),
		)),
		engine.Always(officielle("revenu_reforme"), "Revenu généré par la réforme avant redistribution", reformRevenue),
	}
}

func sumOf(names ...string) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		return sim.Sum(names...)
	}
}

func params(sim *engine.Simulation, paths ...string) ([]float64, error) {
	out := make([]float64, len(paths))
	for i, p := range paths {
		v, err := sim.Param(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// adjustedByIncrease adjusts an expenditure to a price increase read from
// increasePath, relative to the price at pricePath.
func adjustedByIncrease(expenditure, elasticity, increasePath, pricePath string) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		p, err := params(sim, increasePath, pricePath)
		if err != nil {
			return nil, err
		}
		dep, err := sim.Calculate(expenditure)
		if err != nil {
			return nil, err
		}
		elas, err := sim.Calculate(elasticity)
		if err != nil {
			return nil, err
		}
		return AdjustVector(dep, elas, p[0], p[1]), nil
	}
}

func townGasAdjusted(sim *engine.Simulation, _ int) ([]float64, error) {
	p, err := params(sim, paramTownGasIncrease)
	if err != nil {
		return nil, err
	}
	// Social tariffs disappear with the reform and enter household expenditure.
	variable, err := sim.Sum("depenses_gaz_variables", "tarifs_sociaux_gaz")
	if err != nil {
		return nil, err
	}
	unit, err := sim.Calculate("depenses_gaz_prix_unitaire")
	if err != nil {
		return nil, err
	}
	elas, err := sim.Calculate("elas_price_2_2")
	if err != nil {
		return nil, err
	}
	fixed, err := sim.Calculate("depenses_gaz_tarif_fixe")
	if err != nil {
		return nil, err
	}
	return stats.ZeroNonFinite(engine.Add(AdjustVectorPrices(variable, elas, p[0], unit), fixed)), nil
}

// increasedTICPE is the TICPE on an adjusted expenditure with both the
// excise and the tax-inclusive price raised by the increase.
func increasedTICPE(expenditure, excisePath, pricePath, increasePath string, unit float64) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		p, err := params(sim, taxes.ParamVATNormal, excisePath, pricePath, increasePath)
		if err != nil {
			return nil, err
		}
		vat, excise, price := p[0], p[1]*unit+p[3], p[2]+p[3]
		rate := taxes.ImplicitRate(excise, price, vat)

		dep, err := sim.Calculate(expenditure)
		if err != nil {
			return nil, err
		}
		return engine.Map(dep, func(x float64) float64 {
			return taxes.TaxFromExpenseIncludingTax(taxes.ExpenseExcludingVAT(x, vat), rate)
		}), nil
	}
}

// vatGain is the VAT on the reformed expenditure minus the VAT on the
// baseline one. Fixed parts common to both cancel out.
func vatGain(reformed, baseline string) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		vat, err := sim.Param(taxes.ParamVATNormal)
		if err != nil {
			return nil, err
		}
		r, err := sim.Calculate(reformed)
		if err != nil {
			return nil, err
		}
		b, err := sim.Calculate(baseline)
		if err != nil {
			return nil, err
		}
		return engine.Scale(engine.Sub(r, b), vat/(1+vat)), nil
	}
}

func townGasQuantities(sim *engine.Simulation, _ int) ([]float64, error) {
	p, err := params(sim, paramTownGasIncrease)
	if err != nil {
		return nil, err
	}
	gas, err := sim.Calculate(officielle("depenses_gaz_ville"))
	if err != nil {
		return nil, err
	}
	fixed, err := sim.Calculate("depenses_gaz_tarif_fixe")
	if err != nil {
		return nil, err
	}
	unit, err := sim.Calculate("depenses_gaz_prix_unitaire")
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(gas))
	for i := range gas {
		out[i] = (gas[i] - fixed[i]) / (unit[i] + p[0])
	}
	return stats.ZeroNonFinite(out), nil
}

func townGasLevy(sim *engine.Simulation, _ int) ([]float64, error) {
	p, err := params(sim, paramTownGasIncrease)
	if err != nil {
		return nil, err
	}
	q, err := sim.Calculate(officielle("quantites_gaz_final"))
	if err != nil {
		return nil, err
	}
	return engine.Scale(q, p[0]), nil
}

func reformRevenue(sim *engine.Simulation, _ int) ([]float64, error) {
	reformed, err := sim.Calculate(officielle("total_taxes_energies"))
	if err != nil {
		return nil, err
	}
	reference, err := sim.Calculate("total_taxes_energies")
	if err != nil {
		return nil, err
	}
	rest, err := sim.Sum(officielle("gains_tva_total_energies"), "tarifs_sociaux_electricite", "tarifs_sociaux_gaz")
	if err != nil {
		return nil, err
	}
	return engine.Add(RevenueDelta(reformed, reference), rest), nil
}
