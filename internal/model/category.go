package model

// CategoryAssignment is one row of the fiscal category table: a product code
// belongs to Category for every year in [Start, Stop].
type CategoryAssignment struct {
	Code     string `csv:"code_coicop"`
	Category string `csv:"categorie_fiscale"`
	Start    int    `csv:"start"`
	Stop     int    `csv:"stop"`
}

// Active reports whether the assignment covers year.
func (a CategoryAssignment) Active(year int) bool {
	return a.Start <= year && year <= a.Stop
}

// TaxKind classifies fiscal categories by the tax they carry.
type TaxKind string

const (
	TaxKindVAT       TaxKind = "vat"
	TaxKindExcise    TaxKind = "excise"
	TaxKindInsurance TaxKind = "insurance"
	TaxKindFuel      TaxKind = "fuel"
	TaxKindNone      TaxKind = "none"
)

// Fiscal categories known to the tax definitions.
const (
	CategoryVATFull         = "tva_taux_plein"
	CategoryVATIntermediate = "tva_taux_intermediaire"
	CategoryVATReduced      = "tva_taux_reduit"
	CategoryVATSuperReduced = "tva_taux_super_reduit"
	CategoryWine            = "vin"
	CategoryBeer            = "biere"
	CategorySpirits         = "alcools_forts"
	CategoryCigarettes      = "cigarette"
	CategoryCigars          = "cigares"
	CategoryRollingTobacco  = "tabac_a_rouler"
	CategoryFuel            = "ticpe"
	CategoryTransportInsur  = "assurance_transport"
	CategoryHealthInsur     = "assurance_sante"
	CategoryOtherInsur      = "autres_assurances"
)

// KindOf returns the tax kind of a fiscal category.
func KindOf(category string) TaxKind {
	switch category {
	case CategoryVATFull, CategoryVATIntermediate, CategoryVATReduced, CategoryVATSuperReduced:
		return TaxKindVAT
	case CategoryWine, CategoryBeer, CategorySpirits, CategoryCigarettes, CategoryCigars, CategoryRollingTobacco:
		return TaxKindExcise
	case CategoryTransportInsur, CategoryHealthInsur, CategoryOtherInsur:
		return TaxKindInsurance
	case CategoryFuel:
		return TaxKindFuel
	default:
		return TaxKindNone
	}
}

// Categories returns every fiscal category with a tax treatment.
func Categories() []string {
	return []string{
		CategoryVATFull, CategoryVATIntermediate, CategoryVATReduced, CategoryVATSuperReduced,
		CategoryWine, CategoryBeer, CategorySpirits,
		CategoryCigarettes, CategoryCigars, CategoryRollingTobacco,
		CategoryFuel,
		CategoryTransportInsur, CategoryHealthInsur, CategoryOtherInsur,
	}
}
