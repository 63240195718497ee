package survey

import (
	"fmt"
	"strconv"

	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/stats"
)

// WeightedShares returns the share of total weight held by each level of
// column. The shares must sum to 1 within stats.ShareTolerance.
func WeightedShares(f *frame.Frame, column string, levels []float64, weight string) ([]float64, error) {
	v, w, err := columns(f, column, weight)
	if err != nil {
		return nil, err
	}
	shares := stats.Shares(v, w, levels)
	if err := stats.CheckShares(shares); err != nil {
		return nil, fmt.Errorf("shares of %s: %w", column, err)
	}
	return shares, nil
}

// WeightedQuantiles returns the weighted p-quantiles of column.
func WeightedQuantiles(f *frame.Frame, column string, probs []float64, weight string) ([]float64, error) {
	v, w, err := columns(f, column, weight)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = stats.WeightedQuantile(v, w, p)
	}
	return out, nil
}

// Quantiles returns the unweighted p-quantiles of column.
func Quantiles(f *frame.Frame, column string, probs []float64) ([]float64, error) {
	v, err := f.Float(column)
	if err != nil {
		return nil, fmt.Errorf("quantiles: %w", err)
	}
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = stats.Quantile(v, p)
	}
	return out, nil
}

// Comparison pairs one statistic computed on two surveys.
type Comparison struct {
	Column     string
	Keys       []string
	Left       []float64
	Right      []float64
	LeftLabel  string
	RightLabel string
}

// Histogram describes one variable to compare. Levels compares weighted
// shares of categorical values; Probs compares quantiles, weighted by
// pondmen when Weighted is set.
type Histogram struct {
	Column   string
	Levels   []float64
	Probs    []float64
	Weighted bool
}

var defaultProbs = []float64{.05, .2, .35, .5, .65, .8, .95}

// Histograms lists the variables compared between the budget and housing
// surveys.
func Histograms() []Histogram {
	return []Histogram{
		{Column: "aba", Levels: seq(0, 2)},
		{Column: "agepr", Probs: defaultProbs},
		{Column: "ancons", Levels: seq(0, 10)},
		{Column: "cataeu", Levels: []float64{111, 112, 120, 211, 212, 221, 222, 300, 400}},
		{Column: "depenses_energies", Probs: defaultProbs},
		{Column: "dip14pr", Levels: []float64{0, 10, 12, 20, 30, 31, 33, 41, 42, 43, 44, 50, 60, 70, 71}},
		{Column: "htl", Levels: seq(0, 8)},
		{Column: "nactifs", Levels: seq(0, 6)},
		{Column: "nbphab", Levels: seq(0, 10)},
		{Column: "nenfants", Levels: seq(0, 6)},
		{Column: "ocde10", Levels: []float64{1, 1.3, 1.5, 1.6, 1.8, 2.0, 2.1, 2.2, 2.3, 2.4, 2.5}},
		{Column: "poste_04_5_1_1_1", Probs: defaultProbs},
		{Column: "poste_04_5_2_1_1", Probs: []float64{.5, .6, .7, .8, .85, .9, .95, .975}},
		{Column: "poste_04_5_3_1_1", Probs: []float64{.8, .85, .875, .9, .925, .95, .975}},
		{Column: "revtot", Probs: defaultProbs},
		{Column: "surfhab_d", Probs: defaultProbs},
		{Column: "tau", Levels: seq(1, 10)},
		{Column: "tuu", Levels: seq(0, 8)},
		{Column: "zeat", Levels: seq(0, 9)},
	}
}

// Weighted returns a copy of hs whose quantiles are weighted.
func Weighted(hs []Histogram) []Histogram {
	out := make([]Histogram, len(hs))
	for i, h := range hs {
		h.Weighted = true
		out[i] = h
	}
	return out
}

// Compare computes h on both frames. Shares are weighted by pondmen;
// quantiles are unweighted unless h.Weighted.
func Compare(left, right *frame.Frame, leftLabel, rightLabel string, h Histogram) (Comparison, error) {
	c := Comparison{Column: h.Column, LeftLabel: leftLabel, RightLabel: rightLabel}

	var err error
	if len(h.Levels) > 0 {
		if c.Left, err = WeightedShares(left, h.Column, h.Levels, ColumnWeight); err != nil {
			return Comparison{}, fmt.Errorf("%s: %w", leftLabel, err)
		}
		if c.Right, err = WeightedShares(right, h.Column, h.Levels, ColumnWeight); err != nil {
			return Comparison{}, fmt.Errorf("%s: %w", rightLabel, err)
		}
		c.Keys = keys(h.Levels)
		return c, nil
	}

	quantiles := func(f *frame.Frame) ([]float64, error) {
		if h.Weighted {
			return WeightedQuantiles(f, h.Column, h.Probs, ColumnWeight)
		}
		return Quantiles(f, h.Column, h.Probs)
	}
	if c.Left, err = quantiles(left); err != nil {
		return Comparison{}, fmt.Errorf("%s: %w", leftLabel, err)
	}
	if c.Right, err = quantiles(right); err != nil {
		return Comparison{}, fmt.Errorf("%s: %w", rightLabel, err)
	}
	c.Keys = keys(h.Probs)
	return c, nil
}

// CompareAll runs Compare for every histogram whose column exists in both
// frames.
func CompareAll(left, right *frame.Frame, leftLabel, rightLabel string, hs []Histogram) ([]Comparison, error) {
	var out []Comparison
	for _, h := range hs {
		if !left.Has(h.Column) || !right.Has(h.Column) {
			continue
		}
		c, err := Compare(left, right, leftLabel, rightLabel, h)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GroupLevels returns the levels used for before/after comparisons by group.
func GroupLevels(group string) ([]float64, error) {
	switch group {
	case "niveau_vie_decile":
		return seq(1, 10), nil
	case "tuu":
		return seq(0, 8), nil
	default:
		return nil, fmt.Errorf("unsupported group %q", group)
	}
}

// GroupedWeightedMeans returns one row per level of group holding the
// weighted mean of each column over the rows of that level.
func GroupedWeightedMeans(f *frame.Frame, group string, levels []float64, cols []string, weight string) (*frame.Frame, error) {
	g, err := f.Float(group)
	if err != nil {
		return nil, fmt.Errorf("grouping: %w", err)
	}
	w, err := f.Float(weight)
	if err != nil {
		return nil, fmt.Errorf("grouping: %w", err)
	}

	out := frame.New(len(levels))
	if err := out.SetFloat(group, append([]float64(nil), levels...)); err != nil {
		return nil, err
	}
	for _, c := range cols {
		v, err := f.Float(c)
		if err != nil {
			return nil, fmt.Errorf("grouping: %w", err)
		}
		if err := out.SetFloat(c, stats.GroupWeightedMeans(g, v, w, levels)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func columns(f *frame.Frame, column, weight string) ([]float64, []float64, error) {
	v, err := f.Float(column)
	if err != nil {
		return nil, nil, err
	}
	w, err := f.Float(weight)
	if err != nil {
		return nil, nil, err
	}
	return v, w, nil
}

func seq(from, to int) []float64 {
	out := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}

func keys(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}
