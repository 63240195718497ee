// Package report aggregates simulated household variables into the tables
// and charts of the incidence studies.
package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/model"
	"github.com/incidence-dev/incidence/internal/stats"
)

// Variables read by the reports.
const (
	ColumnDecile         = "niveau_vie_decile"
	ColumnLivingStandard = "niveau_de_vie"
	ColumnDisposable     = "rev_disponible"
	ColumnWeight         = "pondmen"
)

// ErrNoHouseholds is returned when a report has no rows to aggregate.
var ErrNoHouseholds = errors.New("no households to aggregate")

// Table is a labelled matrix: Values[i][j] is row i, column j.
type Table struct {
	Title    string
	RowLabel string
	Rows     []string
	Columns  []string
	Values   [][]float64
}

// Column returns the values of column name.
func (t *Table) Column(name string) ([]float64, error) {
	for j, c := range t.Columns {
		if c == name {
			out := make([]float64, len(t.Rows))
			for i := range t.Rows {
				out[i] = t.Values[i][j]
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", frame.ErrNoColumn, name)
}

// TaxGroup sums simulated variables under one chart label.
type TaxGroup struct {
	Label     string
	Variables []string
}

// BurdenGroups are the tax families of the burden and effort reports.
func BurdenGroups() []TaxGroup {
	return []TaxGroup{
		{Label: "TVA", Variables: []string{"tva_total"}},
		{Label: "TIPP", Variables: []string{"ticpe_totale"}},
		{Label: "Assurances", Variables: []string{"total_taxes_assurances"}},
		{Label: "Alcools", Variables: []string{"total_droits_accises_alcools"}},
		{Label: "Tabac", Variables: []string{"total_droits_accises_tabac"}},
	}
}

// Variables lists every simulated variable a burden or effort report reads.
func Variables() []string {
	vars := []string{ColumnDecile, ColumnLivingStandard, ColumnDisposable, ColumnWeight}
	for _, g := range BurdenGroups() {
		vars = append(vars, g.Variables...)
	}
	return vars
}

// WeightedAverageGrouped returns one row per distinct value of group with
// the weighted mean of each column.
func WeightedAverageGrouped(f *frame.Frame, group string, cols []string, weight string) (*frame.Frame, error) {
	g, err := f.Float(group)
	if err != nil {
		return nil, fmt.Errorf("grouping: %w", err)
	}
	w, err := f.Float(weight)
	if err != nil {
		return nil, fmt.Errorf("grouping: %w", err)
	}

	levels := stats.Levels(g)
	out := frame.New(len(levels))
	if err := out.SetFloat(group, levels); err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c == group {
			continue
		}
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

// Burden returns, for each living-standard decile, the share of living
// standard paid in each tax family.
func Burden(f *frame.Frame) (*Table, error) {
	means, err := WeightedAverageGrouped(f, ColumnDecile, Variables(), ColumnWeight)
	if err != nil {
		return nil, fmt.Errorf("burden: %w", err)
	}
	if means.Len() == 0 {
		return nil, fmt.Errorf("burden: %w", ErrNoHouseholds)
	}
	living, _ := means.Float(ColumnLivingStandard)

	t := &Table{Title: "Taxes indirectes / niveau de vie", RowLabel: ColumnDecile}
	t.Rows = decileLabels(means)
	groups := BurdenGroups()
	for _, g := range groups {
		t.Columns = append(t.Columns, g.Label)
	}
	t.Values = make([][]float64, means.Len())
	for i := range t.Values {
		t.Values[i] = make([]float64, len(groups))
		for j, g := range groups {
			t.Values[i][j] = ratio(sumAt(means, g.Variables, i), living[i])
		}
	}
	return t, nil
}

// EffortRate returns, for each decile and year, total indirect taxes over
// disposable income. Frames are keyed by simulated year.
func EffortRate(byYear map[int]*frame.Frame) (*Table, error) {
	if len(byYear) == 0 {
		return nil, fmt.Errorf("effort rate: %w", ErrNoHouseholds)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	var taxVars []string
	for _, g := range BurdenGroups() {
		taxVars = append(taxVars, g.Variables...)
	}

	t := &Table{Title: "Taux d'effort", RowLabel: ColumnDecile}
	byDecile := make(map[float64][]float64)
	var deciles []float64
	for j, y := range years {
		t.Columns = append(t.Columns, strconv.Itoa(y))
		means, err := WeightedAverageGrouped(byYear[y], ColumnDecile, Variables(), ColumnWeight)
		if err != nil {
			return nil, fmt.Errorf("effort rate %d: %w", y, err)
		}
		ds, _ := means.Float(ColumnDecile)
		income, _ := means.Float(ColumnDisposable)
		for i, d := range ds {
			if _, ok := byDecile[d]; !ok {
				byDecile[d] = nanRow(len(years))
				deciles = append(deciles, d)
			}
			byDecile[d][j] = ratio(sumAt(means, taxVars, i), income[i])
		}
	}

	sort.Float64s(deciles)
	for _, d := range deciles {
		t.Rows = append(t.Rows, frame.FormatFloat(d))
		t.Values = append(t.Values, byDecile[d])
	}
	return t, nil
}

// EngelBins ranks households with income above minIncome, splits them into
// bins of equal size and returns the mean of each column per bin.
func EngelBins(f *frame.Frame, income string, cols []string, minIncome float64, bins int) (*Table, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("engel curves: invalid bin count %d", bins)
	}
	inc, err := f.Float(income)
	if err != nil {
		return nil, fmt.Errorf("engel curves: %w", err)
	}
	kept := f.Filter(func(i int) bool { return !math.IsNaN(inc[i]) && inc[i] > minIncome })
	n := kept.Len()
	if n == 0 {
		return nil, fmt.Errorf("engel curves: %w", ErrNoHouseholds)
	}
	keptIncome, _ := kept.Float(income)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return keptIncome[order[a]] < keptIncome[order[b]] })
	bin := make([]float64, n)
	for rank, i := range order {
		bin[i] = float64(rank*bins/n + 1)
	}

	values := make([][]float64, len(cols))
	for j, c := range cols {
		v, err := kept.Float(c)
		if err != nil {
			return nil, fmt.Errorf("engel curves: %w", err)
		}
		values[j] = v
	}

	levels := stats.Levels(bin)
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}

	t := &Table{Title: "Courbes d'Engel", RowLabel: "bin", Columns: cols}
	t.Values = make([][]float64, len(levels))
	for i, level := range levels {
		t.Rows = append(t.Rows, frame.FormatFloat(level))
		t.Values[i] = make([]float64, len(cols))
	}
	for j := range cols {
		means := stats.GroupWeightedMeans(bin, values[j], ones, levels)
		for i := range levels {
			t.Values[i][j] = means[i]
		}
	}
	return t, nil
}

// DecileRows returns the weighted mean of each variable per living-standard
// decile, in the shape recorded in the run history.
func DecileRows(f *frame.Frame, vars []string) ([]model.DecileRow, error) {
	means, err := WeightedAverageGrouped(f, ColumnDecile, vars, ColumnWeight)
	if err != nil {
		return nil, fmt.Errorf("decile rows: %w", err)
	}
	ds, _ := means.Float(ColumnDecile)
	rows := make([]model.DecileRow, len(ds))
	for i, d := range ds {
		rows[i] = model.DecileRow{Decile: int(d), Values: make(map[string]float64)}
		for _, name := range vars {
			if name == ColumnDecile {
				continue
			}
			v, _ := means.Float(name)
			if !math.IsNaN(v[i]) {
				rows[i].Values[name] = v[i]
			}
		}
	}
	return rows, nil
}

func decileLabels(means *frame.Frame) []string {
	ds, _ := means.Float(ColumnDecile)
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = frame.FormatFloat(d)
	}
	return out
}

func sumAt(f *frame.Frame, cols []string, i int) float64 {
	var s float64
	for _, c := range cols {
		v, err := f.Float(c)
		if err != nil || math.IsNaN(v[i]) {
			continue
		}
		s += v[i]
	}
	return s
}

func ratio(num, den float64) float64 {
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func nanRow(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// FromFrame turns a frame of grouped values into a Table, one row per value
// of rowColumn.
func FromFrame(title, rowColumn string, f *frame.Frame) (*Table, error) {
	labels, err := f.Float(rowColumn)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", title, err)
	}
	t := &Table{Title: title, RowLabel: rowColumn}
	for _, c := range f.Columns() {
		if c != rowColumn && !f.IsText(c) {
			t.Columns = append(t.Columns, c)
		}
	}
	for _, l := range labels {
		t.Rows = append(t.Rows, frame.FormatFloat(l))
	}
	t.Values = make([][]float64, f.Len())
	for i := range t.Values {
		t.Values[i] = make([]float64, len(t.Columns))
	}
	for j, c := range t.Columns {
		v, _ := f.Float(c)
		for i := range v {
			t.Values[i][j] = v[i]
		}
	}
	return t, nil
}
