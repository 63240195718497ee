package taxes

import "github.com/incidence-dev/incidence/internal/model"

// Legislation paths read by the tax formulas.
const (
	ParamVATNormal       = "imposition_indirecte.tva.taux_normal"
	ParamVATIntermediate = "imposition_indirecte.tva.taux_intermediaire"
	ParamVATReduced      = "imposition_indirecte.tva.taux_reduit"
	ParamVATSuperReduced = "imposition_indirecte.tva.taux_super_reduit"

	ParamExciseDiesel     = "imposition_indirecte.produits_energetiques.ticpe.gazole"
	ParamExciseGasoline   = "imposition_indirecte.produits_energetiques.ticpe.super_95_98"
	ParamExciseHeatingOil = "imposition_indirecte.produits_energetiques.ticpe.gazole_fioul_domestique_hectolitre"

	ParamPriceDiesel     = "prix_carburants.diesel_ttc"
	ParamPriceGasoline   = "prix_carburants.super_95_ttc"
	ParamPriceHeatingOil = "tarifs_energie.prix_fioul_domestique_ttc"

	FuelPriceNode = "prix_carburants"
)

// TaxFromExpenseIncludingTax returns the tax contained in an expense paid at
// rate r, tax included.
func TaxFromExpenseIncludingTax(expense, rate float64) float64 {
	return expense * rate / (1 + rate)
}

// ExpenseExcludingVAT removes VAT at rate from a tax-inclusive expense.
func ExpenseExcludingVAT(expense, rate float64) float64 {
	return expense - TaxFromExpenseIncludingTax(expense, rate)
}

// ImplicitRate converts a per-unit excise into a rate on the price net of
// excise and VAT: excise*(1+vat) / (price - excise*(1+vat)).
func ImplicitRate(excise, priceIncludingTax, vat float64) float64 {
	withVAT := excise * (1 + vat)
	return withVAT / (priceIncludingTax - withVAT)
}

// vatPath returns the VAT rate parameter applying to a fiscal category, or ""
// when the category bears no VAT.
func vatPath(category string) string {
	switch category {
	case model.CategoryVATFull:
		return ParamVATNormal
	case model.CategoryVATIntermediate:
		return ParamVATIntermediate
	case model.CategoryVATReduced:
		return ParamVATReduced
	case model.CategoryVATSuperReduced:
		return ParamVATSuperReduced
	}
	switch model.KindOf(category) {
	case model.TaxKindExcise, model.TaxKindFuel:
		return ParamVATNormal
	}
	return ""
}

// specificPath returns the implicit excise or insurance tax rate of a
// category, or "".
func specificPath(category string) string {
	switch model.KindOf(category) {
	case model.TaxKindExcise:
		return "imposition_indirecte.droits_accises." + category
	case model.TaxKindInsurance:
		return "imposition_indirecte.assurances." + category
	}
	return ""
}
