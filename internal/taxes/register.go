package taxes

import (
	"errors"
	"fmt"
	"math"

	"github.com/incidence-dev/incidence/internal/categories"
	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/legislation"
	"github.com/incidence-dev/incidence/internal/model"
	"github.com/incidence-dev/incidence/internal/naming"
	"github.com/incidence-dev/incidence/internal/stats"
)

var (
	vatCategories = []string{
		model.CategoryVATFull,
		model.CategoryVATIntermediate,
		model.CategoryVATReduced,
		model.CategoryVATSuperReduced,
	}
	alcoholCategories   = []string{model.CategoryWine, model.CategoryBeer, model.CategorySpirits}
	tobaccoCategories   = []string{model.CategoryCigarettes, model.CategoryCigars, model.CategoryRollingTobacco}
	insuranceCategories = []string{model.CategoryTransportInsur, model.CategoryHealthInsur, model.CategoryOtherInsur}
)

// Register adds the household inputs, the pre-tax expenditure of every product
// of table, and the baseline indirect-tax variables to system. Category
// aggregates (depenses_ht_<category>) are generated beforehand by the
// categories package; categories absent from the table evaluate to zero.
func Register(system *engine.System, table []model.CategoryAssignment) error {
	if err := registerInputs(system); err != nil {
		return err
	}
	if err := registerProducts(system, table); err != nil {
		return err
	}
	for _, c := range model.Categories() {
		if err := addInput(system, naming.CategoryVariable(c), "Dépenses hors taxes: "+c); err != nil {
			return err
		}
	}

	vars := []engine.Variable{
		engine.Always("tva_taux_plein", "Montant de TVA acquitté au taux plein", vatFull),
		engine.Always("tva_taux_intermediaire", "Montant de TVA acquitté au taux intermédiaire",
			vatOn(model.CategoryVATIntermediate, ParamVATIntermediate)),
		engine.Always("tva_taux_reduit", "Montant de TVA acquitté au taux réduit",
			vatOn(model.CategoryVATReduced, ParamVATReduced)),
		engine.Always("tva_taux_super_reduit", "Montant de TVA acquitté au taux super réduit",
			vatOn(model.CategoryVATSuperReduced, ParamVATSuperReduced)),
		engine.Always("tva_total", "Montant total de TVA acquitté", sumOf(vatCategories...)),

		engine.Always("total_droits_accises_alcools", "Droits d'accises sur les alcools", sumOf(exciseNames(alcoholCategories)...)),
		engine.Always("total_droits_accises_tabac", "Droits d'accises sur le tabac", sumOf(exciseNames(tobaccoCategories)...)),
		engine.Always("total_taxes_assurances", "Taxes sur les contrats d'assurance", sumOf(insuranceNames()...)),

		engine.Always("diesel_ticpe", "Montant de TICPE sur le gazole",
			ticpe("depenses_diesel_ajustees", ParamExciseDiesel, ParamPriceDiesel, 1)),
		engine.Always("essence_ticpe", "Montant de TICPE sur l'essence",
			ticpe("depenses_essence_ajustees", ParamExciseGasoline, ParamPriceGasoline, 1)),
		engine.Always("combustibles_liquides_ticpe", "Montant de TICPE sur le fioul domestique",
			ticpe("depenses_combustibles_liquides", ParamExciseHeatingOil, ParamPriceHeatingOil, 0.01)),
		engine.Always("ticpe_totale", "Montant de TICPE sur les carburants", sumOf("diesel_ticpe", "essence_ticpe")),
		engine.Always("total_taxes_energies", "Taxes sur les énergies",
			sumOf("diesel_ticpe", "essence_ticpe", "combustibles_liquides_ticpe")),
		engine.Always("depenses_carburants", "Dépenses en carburants", sumOf("depenses_diesel", "depenses_essence")),
		engine.Always("depenses_energies_logement", "Dépenses en énergies dans le logement", sumOf(
			"depenses_electricite", "tarifs_sociaux_electricite", "depenses_gaz_ville", "depenses_gaz_liquefie",
			"depenses_combustibles_liquides", "depenses_combustibles_solides", "depenses_energie_thermique",
		)),

		engine.Always("total_taxes_indirectes", "Total des taxes indirectes", sumOf(
			"tva_total", "ticpe_totale", "total_taxes_assurances",
			"total_droits_accises_alcools", "total_droits_accises_tabac",
		)),
		engine.Always("niveau_de_vie", "Niveau de vie du ménage", livingStandard),
		engine.Always("niveau_vie_decile", "Décile de niveau de vie", livingStandardDecile),
	}
	for _, c := range append(append(alcoholCategories, tobaccoCategories...), insuranceCategories...) {
		name := specificTaxName(c)
		vars = append(vars, engine.Always(name, "Taxe spécifique: "+c, specificTax(c)))
	}

	for _, v := range vars {
		if err := system.Add(v); err != nil {
			return fmt.Errorf("registering %s: %w", v.Name, err)
		}
	}
	return nil
}

// registerProducts adds depenses_ht_poste_<code>: the tax-inclusive expenditure
// net of the VAT and specific tax of the product's category that year.
func registerProducts(system *engine.System, table []model.CategoryAssignment) error {
	byCode := make(map[string][]engine.DatedFormula)
	var order []string
	for _, row := range table {
		if _, ok := byCode[row.Code]; !ok {
			order = append(order, row.Code)
		}
		byCode[row.Code] = append(byCode[row.Code], engine.DatedFormula{
			Name:  naming.FunctionName(row.Start, row.Stop),
			Start: row.Start,
			Stop:  categories.FormulaStop(row.Stop),
			Fn:    pretax(naming.ProductColumn(row.Code), row.Category),
		})
	}

	for _, code := range order {
		if err := addInput(system, naming.ProductColumn(code), "Dépenses TTC: "+code); err != nil {
			return err
		}
		v := engine.Variable{
			Name:     naming.ProductVariable(code),
			Label:    "Dépenses hors taxes: " + code,
			Formulas: byCode[code],
		}
		if err := system.Add(v); err != nil {
			return fmt.Errorf("registering %s: %w", v.Name, err)
		}
	}
	return nil
}

func pretax(column, category string) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		ttc, err := sim.Calculate(column)
		if err != nil {
			return nil, err
		}
		vat, err := optionalParam(sim, vatPath(category))
		if err != nil {
			return nil, err
		}
		specific, err := optionalParam(sim, specificPath(category))
		if err != nil {
			return nil, err
		}
		return engine.Scale(ttc, 1/((1+vat)*(1+specific))), nil
	}
}

func optionalParam(sim *engine.Simulation, path string) (float64, error) {
	if path == "" {
		return 0, nil
	}
	return sim.Param(path)
}

func vatOn(category, param string) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		base, err := sim.Calculate(naming.CategoryVariable(category))
		if err != nil {
			return nil, err
		}
		rate, err := sim.Param(param)
		if errors.Is(err, legislation.ErrParameterNotFound) && allZero(base) {
			// A rate not yet in force has nothing to apply to.
			return engine.Zeros(len(base)), nil
		}
		if err != nil {
			return nil, err
		}
		return engine.Scale(base, rate), nil
	}
}

func allZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// vatFull also carries the VAT on goods bearing an excise, whose base
// includes the excise itself.
func vatFull(sim *engine.Simulation, _ int) ([]float64, error) {
	rate, err := sim.Param(ParamVATNormal)
	if err != nil {
		return nil, err
	}
	base, err := sim.Sum(naming.CategoryVariable(model.CategoryVATFull), naming.CategoryVariable(model.CategoryFuel))
	if err != nil {
		return nil, err
	}
	for _, c := range append(alcoholCategories, tobaccoCategories...) {
		ht, err := sim.Calculate(naming.CategoryVariable(c))
		if err != nil {
			return nil, err
		}
		excise, err := sim.Param(specificPath(c))
		if err != nil {
			return nil, err
		}
		for i, x := range ht {
			base[i] += x * (1 + excise)
		}
	}
	return engine.Scale(base, rate), nil
}

func specificTaxName(category string) string {
	if model.KindOf(category) == model.TaxKindInsurance {
		return "taxe_" + category
	}
	return "droit_d_accise_" + category
}

func specificTax(category string) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		base, err := sim.Calculate(naming.CategoryVariable(category))
		if err != nil {
			return nil, err
		}
		rate, err := sim.Param(specificPath(category))
		if err != nil {
			return nil, err
		}
		return engine.Scale(base, rate), nil
	}
}

func exciseNames(categories []string) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = specificTaxName(c)
	}
	return out
}

func insuranceNames() []string {
	return exciseNames(insuranceCategories)
}

// ticpe computes the excise contained in an expenditure through the implicit
// rate on the price net of excise and VAT. unit converts the excise to the
// unit of the price.
func ticpe(expenditure, excisePath, pricePath string, unit float64) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		dep, err := sim.Calculate(expenditure)
		if err != nil {
			return nil, err
		}
		vat, err := sim.Param(ParamVATNormal)
		if err != nil {
			return nil, err
		}
		excise, err := sim.Param(excisePath)
		if err != nil {
			return nil, err
		}
		price, err := sim.Param(pricePath)
		if err != nil {
			return nil, err
		}
		rate := ImplicitRate(excise*unit, price, vat)
		return engine.Map(dep, func(x float64) float64 {
			return TaxFromExpenseIncludingTax(ExpenseExcludingVAT(x, vat), rate)
		}), nil
	}
}

func sumOf(names ...string) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		return sim.Sum(names...)
	}
}

func livingStandard(sim *engine.Simulation, _ int) ([]float64, error) {
	income, err := sim.Calculate("rev_disponible")
	if err != nil {
		return nil, err
	}
	units, err := sim.Calculate("ocde10")
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(income))
	for i := range income {
		out[i] = income[i] / units[i]
	}
	return stats.ZeroNonFinite(out), nil
}

func livingStandardDecile(sim *engine.Simulation, _ int) ([]float64, error) {
	nv, err := sim.Calculate("niveau_de_vie")
	if err != nil {
		return nil, err
	}
	w, err := sim.Calculate("pondmen")
	if err != nil {
		return nil, err
	}
	deciles := stats.WeightedDeciles(nv, w)
	for i, d := range deciles {
		if math.IsNaN(d) {
			deciles[i] = 0
		}
	}
	return deciles, nil
}
