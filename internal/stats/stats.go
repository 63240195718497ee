// Package stats holds the weighted aggregations used on survey data.
// NaN values are skipped together with their weights.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ShareTolerance is the accepted deviation of a share vector's sum from 1.
const ShareTolerance = 0.001

// ErrSharesDoNotSumToOne signals a failed share data-quality gate.
var ErrSharesDoNotSumToOne = errors.New("shares do not sum to 1")

// Sum returns the sum of non-NaN values.
func Sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		if !math.IsNaN(x) {
			s += x
		}
	}
	return s
}

// WeightedSum returns sum(v*w).
func WeightedSum(v, w []float64) float64 {
	var s float64
	for i, x := range v {
		if math.IsNaN(x) || math.IsNaN(w[i]) {
			continue
		}
		s += x * w[i]
	}
	return s
}

// WeightedMean returns sum(v*w)/sum(w), or NaN when the weights sum to zero.
func WeightedMean(v, w []float64) float64 {
	var num, den float64
	for i, x := range v {
		if math.IsNaN(x) || math.IsNaN(w[i]) {
			continue
		}
		num += x * w[i]
		den += w[i]
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// Mean returns the arithmetic mean of non-NaN values.
func Mean(v []float64) float64 {
	var s float64
	n := 0
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		s += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return s / float64(n)
}

// StdDev returns the sample standard deviation (n-1 denominator).
func StdDev(v []float64) float64 {
	m := Mean(v)
	var ss float64
	n := 0
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		ss += (x - m) * (x - m)
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(ss / float64(n-1))
}

// Quantile returns the p-quantile of v using linear interpolation between
// closest ranks.
func Quantile(v []float64, p float64) float64 {
	sorted := nonNaN(v)
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// WeightedQuantile returns the smallest value whose cumulative weight reaches
// p times the total weight.
func WeightedQuantile(v, w []float64, p float64) float64 {
	idx := order(v, w)
	if len(idx) == 0 {
		return math.NaN()
	}

	var total float64
	for _, i := range idx {
		total += w[i]
	}
	target := p * total

	var cum float64
	for _, i := range idx {
		cum += w[i]
		if cum >= target {
			return v[i]
		}
	}
	return v[idx[len(idx)-1]]
}

// WeightedDeciles assigns each row a decile in 1..10 of v, using cumulative
// weights. Rows with a NaN value get NaN.
func WeightedDeciles(v, w []float64) []float64 {
	out := make([]float64, len(v))
	for i := range out {
		out[i] = math.NaN()
	}

	idx := order(v, w)
	var total float64
	for _, i := range idx {
		total += w[i]
	}
	if total == 0 {
		return out
	}

	var cum float64
	for _, i := range idx {
		cum += w[i]
		d := math.Ceil(10 * cum / total)
		out[i] = math.Max(1, math.Min(10, d))
	}
	return out
}

// Shares returns, for each level, the share of total weight held by rows
// whose value equals that level.
func Shares(v, w []float64, levels []float64) []float64 {
	var total float64
	byLevel := make(map[float64]float64, len(levels))
	for i, x := range v {
		if math.IsNaN(w[i]) {
			continue
		}
		total += w[i]
		byLevel[x] += w[i]
	}

	out := make([]float64, len(levels))
	if total == 0 {
		return out
	}
	for j, level := range levels {
		out[j] = byLevel[level] / total
	}
	return out
}

// CheckShares fails when shares do not sum to 1 within ShareTolerance.
func CheckShares(shares []float64) error {
	s := Sum(shares)
	if math.Abs(s-1) > ShareTolerance {
		return fmt.Errorf("%w: got %.4f", ErrSharesDoNotSumToOne, s)
	}
	return nil
}

// GroupWeightedMeans returns the weighted mean of v for rows whose group value
// equals each level.
func GroupWeightedMeans(group, v, w []float64, levels []float64) []float64 {
	out := make([]float64, len(levels))
	for j, level := range levels {
		var num, den float64
		for i, g := range group {
			if g != level || math.IsNaN(v[i]) {
				continue
			}
			num += v[i] * w[i]
			den += w[i]
		}
		if den == 0 {
			out[j] = math.NaN()
			continue
		}
		out[j] = num / den
	}
	return out
}

// Levels returns the distinct non-NaN values of v in ascending order.
func Levels(v []float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, x := range v {
		if math.IsNaN(x) || seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	sort.Float64s(out)
	return out
}

// ZeroNonFinite replaces NaN and ±Inf with 0, in place.
func ZeroNonFinite(v []float64) []float64 {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			v[i] = 0
		}
	}
	return v
}

func nonNaN(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// order returns the indices of rows with finite value and weight, sorted by value.
func order(v, w []float64) []int {
	idx := make([]int, 0, len(v))
	for i, x := range v {
		if math.IsNaN(x) || math.IsNaN(w[i]) {
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })
	return idx
}
