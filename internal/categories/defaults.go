package categories

import "github.com/incidence-dev/incidence/internal/model"

// DefaultTable returns the bundled fiscal category table, a COICOP
// sample covering every fiscal category from 1994 to 2014.
func DefaultTable() []model.CategoryAssignment {
	return []model.CategoryAssignment{
		// Food and non-alcoholic drinks.
		{Code: "01.1.1.1.1", Category: model.CategoryVATReduced, Start: 1994, Stop: 2014},
		{Code: "01.1.2.1.1", Category: model.CategoryVATReduced, Start: 1994, Stop: 2014},
		{Code: "01.1.8.1.1", Category: model.CategoryVATReduced, Start: 1994, Stop: 2014},
		{Code: "01.2.1.1.1", Category: model.CategoryVATReduced, Start: 1994, Stop: 2014},
		// Alcohol and tobacco.
		{Code: "02.1.1.1.1", Category: model.CategorySpirits, Start: 1994, Stop: 2014},
		{Code: "02.1.2.1.1", Category: model.CategoryWine, Start: 1994, Stop: 2014},
		{Code: "02.1.3.1.1", Category: model.CategoryBeer, Start: 1994, Stop: 2014},
		{Code: "02.2.1.1.1", Category: model.CategoryCigarettes, Start: 1994, Stop: 2014},
		{Code: "02.2.2.1.1", Category: model.CategoryCigars, Start: 1994, Stop: 2014},
		{Code: "02.2.3.1.1", Category: model.CategoryRollingTobacco, Start: 1994, Stop: 2014},
		// Clothing and housing energy.
		{Code: "03.1.2.1.1", Category: model.CategoryVATFull, Start: 1994, Stop: 2014},
		{Code: "04.5.1.1.1", Category: model.CategoryVATFull, Start: 1994, Stop: 2014},
		{Code: "04.5.2.1.1", Category: model.CategoryVATFull, Start: 1994, Stop: 2014},
		{Code: "04.5.3.1.1", Category: model.CategoryVATFull, Start: 1994, Stop: 2014},
		// Health.
		{Code: "06.1.1.1.1", Category: model.CategoryVATSuperReduced, Start: 1994, Stop: 2014},
		{Code: "06.1.1.2.1", Category: model.CategoryVATSuperReduced, Start: 1994, Stop: 2014},
		{Code: "06.1.2.1.1", Category: model.CategoryVATFull, Start: 1994, Stop: 2014},
		// Transport.
		{Code: "07.2.2.1.1", Category: model.CategoryFuel, Start: 1994, Stop: 2014},
		{Code: "07.2.2.2.1", Category: model.CategoryFuel, Start: 1994, Stop: 2014},
		{Code: "07.3.1.1.1", Category: model.CategoryVATReduced, Start: 1994, Stop: 2011},
		{Code: "07.3.1.1.1", Category: model.CategoryVATIntermediate, Start: 2012, Stop: 2014},
		// Press, restaurants.
		{Code: "09.5.2.1.1", Category: model.CategoryVATSuperReduced, Start: 1994, Stop: 2014},
		{Code: "11.1.1.1.1", Category: model.CategoryVATFull, Start: 1994, Stop: 2009},
		{Code: "11.1.1.1.1", Category: model.CategoryVATReduced, Start: 2010, Stop: 2011},
		{Code: "11.1.1.1.1", Category: model.CategoryVATIntermediate, Start: 2012, Stop: 2014},
		// Insurance.
		{Code: "12.5.2.1.1", Category: model.CategoryOtherInsur, Start: 1994, Stop: 2014},
		{Code: "12.5.3.1.1", Category: model.CategoryHealthInsur, Start: 1994, Stop: 2014},
		{Code: "12.5.4.1.1", Category: model.CategoryTransportInsur, Start: 1994, Stop: 2014},
	}
}
