package report

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incidence-dev/incidence/internal/frame"
)

func households(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New(4)
	cols := map[string][]float64{
		ColumnDecile:                   {1, 1, 2, 2},
		ColumnWeight:                   {1, 1, 1, 1},
		ColumnLivingStandard:           {1000, 1000, 2000, 2000},
		ColumnDisposable:               {1500, 1500, 3000, 3000},
		"tva_total":                    {100, 50, 150, 150},
		"ticpe_totale":                 {10, 10, 20, 20},
		"total_taxes_assurances":       {5, 5, 5, 5},
		"total_droits_accises_alcools": {1, 1, 2, 2},
		"total_droits_accises_tabac":   {0, 2, 0, 0},
	}
	for name, v := range cols {
		require.NoError(t, f.SetFloat(name, v))
	}
	return f
}

func TestWeightedAverageGrouped(t *testing.T) {
	f := frame.New(3)
	require.NoError(t, f.SetFloat("g", []float64{2, 1, 2}))
	require.NoError(t, f.SetFloat("w", []float64{1, 1, 3}))
	require.NoError(t, f.SetFloat("x", []float64{10, 5, 30}))

	out, err := WeightedAverageGrouped(f, "g", []string{"g", "x"}, "w")
	require.NoError(t, err)
	g, _ := out.Float("g")
	x, _ := out.Float("x")
	assert.Equal(t, []float64{1, 2}, g)
	assert.Equal(t, []float64{5, 25}, x)

	_, err = WeightedAverageGrouped(f, "g", []string{"missing"}, "w")
	assert.ErrorIs(t, err, frame.ErrNoColumn)
}

func TestBurden(t *testing.T) {
	tbl, err := Burden(households(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"TVA", "TIPP", "Assurances", "Alcools", "Tabac"}, tbl.Columns)
	assert.Equal(t, []string{"1", "2"}, tbl.Rows)

	want := [][]float64{
		{0.075, 0.01, 0.005, 0.001, 0.001},
		{0.075, 0.01, 0.0025, 0.001, 0},
	}
	if diff := cmp.Diff(want, tbl.Values, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("burden mismatch (-want +got):\n%s", diff)
	}

	tva, err := tbl.Column("TVA")
	require.NoError(t, err)
	assert.Len(t, tva, 2)
	_, err = tbl.Column("nope")
	assert.ErrorIs(t, err, frame.ErrNoColumn)
}

func TestBurden_Empty(t *testing.T) {
	f := households(t).Filter(func(int) bool { return false })
	_, err := Burden(f)
	assert.ErrorIs(t, err, ErrNoHouseholds)
}

func TestEffortRate(t *testing.T) {
	f := households(t)
	lower := f.Filter(func(i int) bool { return i < 2 })

	tbl, err := EffortRate(map[int]*frame.Frame{2005: lower, 2000: f})
	require.NoError(t, err)
	assert.Equal(t, []string{"2000", "2005"}, tbl.Columns)
	assert.Equal(t, []string{"1", "2"}, tbl.Rows)

	assert.InDelta(t, 92.0/1500, tbl.Values[0][0], 1e-12)
	assert.InDelta(t, 92.0/1500, tbl.Values[0][1], 1e-12)
	assert.InDelta(t, 177.0/3000, tbl.Values[1][0], 1e-12)
	assert.True(t, math.IsNaN(tbl.Values[1][1]))

	_, err = EffortRate(nil)
	assert.ErrorIs(t, err, ErrNoHouseholds)
}

func TestEngelBins(t *testing.T) {
	f := frame.New(5)
	require.NoError(t, f.SetFloat("revenu", []float64{500, 5000, 2000, 4000, 3000}))
	require.NoError(t, f.SetFloat("x", []float64{99, 4, 1, 3, 2}))

	tbl, err := EngelBins(f, "revenu", []string{"x"}, 1000, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tbl.Rows)
	assert.Equal(t, [][]float64{{1.5}, {3.5}}, tbl.Values)

	_, err = EngelBins(f, "revenu", []string{"x"}, 1e9, 50)
	assert.ErrorIs(t, err, ErrNoHouseholds)
	_, err = EngelBins(f, "revenu", []string{"x"}, 0, 0)
	assert.Error(t, err)
}

func TestEngelBins_FiftyBins(t *testing.T) {
	n := 200
	f := frame.New(n)
	inc := make([]float64, n)
	for i := range inc {
		inc[i] = float64(2000 + i)
	}
	require.NoError(t, f.SetFloat("revenu", inc))

	tbl, err := EngelBins(f, "revenu", []string{"revenu"}, 1000, 50)
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 50)
	assert.InDelta(t, 2001.5, tbl.Values[0][0], 1e-9)
}

func TestWriteCSV(t *testing.T) {
	tbl := &Table{
		RowLabel: "niveau_vie_decile",
		Rows:     []string{"1", "2"},
		Columns:  []string{"TVA", "2005"},
		Values:   [][]float64{{0.075, 1.0 / 3}, {0.1, math.NaN()}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "niveau_vie_decile,TVA,2005\n1,0.075,0.333333\n2,0.1,\n", buf.String())

	path := filepath.Join(t.TempDir(), "report", "burden.csv")
	require.NoError(t, Save(path, tbl))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_FlushError(t *testing.T) {
	tbl := &Table{RowLabel: "niveau_vie_decile", Rows: []string{"1"}, Columns: []string{"TVA"}, Values: [][]float64{{0.1}}}
	assert.ErrorContains(t, WriteCSV(failingWriter{}, tbl), "disk full")
}

func TestFormat(t *testing.T) {
	assert.Contains(t, FormatNumber(0.25), "0,25")
	assert.Contains(t, FormatPercent(0.075), "7,50")
	assert.Equal(t, "-", FormatNumber(math.NaN()))
	assert.Equal(t, "-", FormatPercent(math.NaN()))
}

func TestRender(t *testing.T) {
	tbl, err := Burden(households(t))
	require.NoError(t, err)

	out := RenderTable(tbl, true)
	assert.Contains(t, out, "Taxes indirectes")
	assert.Contains(t, out, "Assurances")
	assert.Contains(t, out, "7,50")

	bars := RenderBars(tbl, 20, true)
	assert.Contains(t, bars, "TVA")
	// 20 per full-scale bar: TVA 40, TIPP 40, Assurances 30, Alcools 40, Tabac 20.
	assert.Equal(t, 170, strings.Count(bars, "█"))
}

func TestDecileRows(t *testing.T) {
	rows, err := DecileRows(households(t), []string{ColumnDecile, "tva_total", "ticpe_totale"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Decile)
	assert.Equal(t, map[string]float64{"tva_total": 75, "ticpe_totale": 10}, rows[0].Values)
	assert.Equal(t, 2, rows[1].Decile)

	_, err = DecileRows(households(t), []string{"missing"})
	assert.ErrorIs(t, err, frame.ErrNoColumn)
}

func TestFromFrame(t *testing.T) {
	f := frame.New(2)
	require.NoError(t, f.SetFloat("tuu", []float64{1, 2}))
	require.NoError(t, f.SetFloat("agepr", []float64{40.5, 60}))
	require.NoError(t, f.SetText("label", []string{"a", "b"}))

	tab, err := FromFrame("Moyennes", "tuu", f)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tab.Rows)
	assert.Equal(t, []string{"agepr"}, tab.Columns)
	assert.Equal(t, [][]float64{{40.5}, {60}}, tab.Values)

	_, err = FromFrame("Moyennes", "missing", f)
	assert.ErrorIs(t, err, frame.ErrNoColumn)
}
