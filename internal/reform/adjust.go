package reform

import (
	"errors"
	"math"

	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/legislation"
	"github.com/incidence-dev/incidence/internal/stats"
	"github.com/incidence-dev/incidence/internal/taxes"
)

// ReferenceSuffix names the frozen copy of a price parameter a reform is
// measured against.
const ReferenceSuffix = "_reference"

// AdjustExpenditure returns the expenditure after a price change under a
// first-order demand response:
//
//	baseline * (1 + (1+elasticity) * delta / referencePrice)
//
// A zero delta returns baseline unchanged. Non-finite results are 0.
func AdjustExpenditure(baseline, elasticity, delta, referencePrice float64) float64 {
	if delta == 0 {
		return baseline
	}
	v := baseline * (1 + (1+elasticity)*delta/referencePrice)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// AdjustVector applies AdjustExpenditure per household with a common price.
func AdjustVector(baseline, elasticity []float64, delta, referencePrice float64) []float64 {
	out := make([]float64, len(baseline))
	for i := range baseline {
		out[i] = AdjustExpenditure(baseline[i], elasticity[i], delta, referencePrice)
	}
	return out
}

// AdjustVectorPrices applies AdjustExpenditure per household with the unit
// price each household pays.
func AdjustVectorPrices(baseline, elasticity []float64, delta float64, unitPrices []float64) []float64 {
	out := make([]float64, len(baseline))
	for i := range baseline {
		out[i] = AdjustExpenditure(baseline[i], elasticity[i], delta, unitPrices[i])
	}
	return out
}

// RevenueDelta returns reform minus reference tax yield per household.
func RevenueDelta(reform, reference []float64) []float64 {
	return engine.Sub(reform, reference)
}

// SumRevenueDelta returns the total of RevenueDelta, weighted when weights is
// non-nil.
func SumRevenueDelta(reform, reference, weights []float64) float64 {
	d := RevenueDelta(reform, reference)
	if weights == nil {
		return stats.Sum(d)
	}
	return stats.WeightedSum(d, weights)
}

// priceDelta returns the current price at path minus its reference copy.
// ok is false when no reference exists, meaning no reform applies.
func priceDelta(sim *engine.Simulation, path string) (delta, reference float64, ok bool, err error) {
	reference, err = sim.Param(path + ReferenceSuffix)
	if errors.Is(err, legislation.ErrParameterNotFound) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	current, err := sim.Param(path)
	if err != nil {
		return 0, 0, false, err
	}
	return current - reference, reference, true, nil
}

// adjustedByReferencePrice builds the formula of an expenditure adjusted to
// the change of the price at path relative to its reference.
func adjustedByReferencePrice(expenditure, elasticity, path string) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		dep, err := sim.Calculate(expenditure)
		if err != nil {
			return nil, err
		}
		delta, ref, ok, err := priceDelta(sim, path)
		if err != nil {
			return nil, err
		}
		if !ok || delta == 0 {
			return dep, nil
		}
		elas, err := sim.Calculate(elasticity)
		if err != nil {
			return nil, err
		}
		return AdjustVector(dep, elas, delta, ref), nil
	}
}

// RegisterAdjustedExpenditures adds the fuel expenditures after reaction to a
// price reform. Without reference prices they equal the baseline.
func RegisterAdjustedExpenditures(system *engine.System) error {
	vars := []engine.Variable{
		engine.Always("depenses_diesel_ajustees", "Dépenses en diesel après réaction à la réforme des prix",
			adjustedByReferencePrice("depenses_diesel", "elas_price_1_1", taxes.ParamPriceDiesel)),
		engine.Always("depenses_essence_ajustees", "Dépenses en essence après réaction à la réforme des prix",
			adjustedByReferencePrice("depenses_essence", "elas_price_1_1", taxes.ParamPriceGasoline)),
		engine.Always("depenses_carburants_ajustees", "Dépenses en carburants après réaction à la réforme des prix",
			func(sim *engine.Simulation, _ int) ([]float64, error) {
				return sim.Sum("depenses_diesel_ajustees", "depenses_essence_ajustees")
			}),
	}
	for _, v := range vars {
		if err := system.Put(v); err != nil {
			return err
		}
	}
	return nil
}
