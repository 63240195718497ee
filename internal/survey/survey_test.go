package survey

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/stats"
)

func loadBdF(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := DefaultRegistry().Load("bdf", "../../testdata/survey_bdf.csv")
	require.NoError(t, err)
	return f
}

func loadENL(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := DefaultRegistry().Load("enl", "../../testdata/survey_enl.csv")
	require.NoError(t, err)
	return f
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&SourceParser{Name: "bdf"})
	assert.NotNil(t, r.Get("BdF"))
	assert.NotNil(t, r.Get("BDF"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&SourceParser{Name: "bdf"})
	assert.Panics(t, func() { r.Register(&SourceParser{Name: "BDF"}) })
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, []string{"bdf", "enl", "entd", "erfs"}, DefaultRegistry().Sources())
}

func TestRegistry_LoadUnknownSource(t *testing.T) {
	_, err := DefaultRegistry().Load("nope", "../../testdata/survey_bdf.csv")
	assert.ErrorContains(t, err, "unknown survey source")
}

func TestSourceParser_RenamesColumns(t *testing.T) {
	f := loadENL(t)
	assert.Equal(t, 2, f.Len())
	assert.True(t, f.IsText(ColumnIdent))
	assert.False(t, f.Has("idlog"))

	ids, err := f.Text(ColumnIdent)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, ids)

	w, err := f.Float(ColumnWeight)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 150}, w)
}

func TestSourceParser_MissingWeight(t *testing.T) {
	p := &SourceParser{Name: "bdf"}
	_, err := p.Parse(strings.NewReader("ident_men,tuu\na,1\n"))
	assert.ErrorIs(t, err, frame.ErrNoColumn)
}

func TestSourceParser_EmptyFile(t *testing.T) {
	p := &SourceParser{Name: "bdf"}
	f, err := p.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
}

func TestScan_FindsRegisteredExtracts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"survey_bdf.csv", "survey_unknown.csv", "other.csv", "survey_enl.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "survey_erfs.csv"), 0o755))

	files, err := DefaultRegistry().Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "bdf", files[0].Source)
	assert.Equal(t, filepath.Join(dir, "survey_bdf.csv"), files[0].Path)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := DefaultRegistry().Scan(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "survey_erfs.csv"), Path("data", "ERFS"))
}

func TestRecode(t *testing.T) {
	f := frame.New(3)
	require.NoError(t, f.SetFloat("tuu", []float64{1, 2, math.NaN()}))
	require.NoError(t, Recode(f, "tuu", map[float64]float64{1: 0}))
	tuu, _ := f.Float("tuu")
	assert.Equal(t, 0.0, tuu[0])
	assert.Equal(t, 2.0, tuu[1])
	assert.True(t, math.IsNaN(tuu[2]))

	assert.ErrorIs(t, Recode(f, "missing", nil), frame.ErrNoColumn)
}

func TestTopCode(t *testing.T) {
	f := frame.New(4)
	require.NoError(t, f.SetFloat("nenfants", []float64{0, 3, 4, 7}))
	require.NoError(t, TopCode(f, "nenfants", 3, 4))
	v, _ := f.Float("nenfants")
	assert.Equal(t, []float64{0, 3, 4, 4}, v)
}

func TestDonationClasses(t *testing.T) {
	f := loadBdF(t)
	require.NoError(t, DonationClasses(f))

	class, err := f.Float(ColumnDonationClass)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 4}, class)

	active, err := f.Float(ColumnActive)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, active)

	assert.ErrorIs(t, DonationClasses(frame.New(1)), frame.ErrNoColumn)
}

func TestWeightedShares(t *testing.T) {
	f := loadBdF(t)
	shares, err := WeightedShares(f, "tuu", []float64{0, 1, 2, 8}, ColumnWeight)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.2, 0.6, 0.2}, shares, 1e-9)
	assert.InDelta(t, 1, stats.Sum(shares), stats.ShareTolerance)
}

func TestWeightedShares_GateFails(t *testing.T) {
	f := loadBdF(t)
	_, err := WeightedShares(f, "tuu", []float64{1, 2}, ColumnWeight)
	assert.ErrorIs(t, err, stats.ErrSharesDoNotSumToOne)
}

func TestQuantiles(t *testing.T) {
	f := loadBdF(t)
	q, err := Quantiles(f, "agepr", []float64{0, 0.5, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{30, 47.5, 60}, q, 1e-9)

	wq, err := WeightedQuantiles(f, "agepr", []float64{0.5}, ColumnWeight)
	require.NoError(t, err)
	assert.Equal(t, []float64{45}, wq)
}

func TestCompare_Shares(t *testing.T) {
	c, err := Compare(loadBdF(t), loadENL(t), "BdF", "ENL", Histogram{Column: "tuu", Levels: seq(0, 8)})
	require.NoError(t, err)
	assert.Equal(t, "tuu", c.Column)
	assert.Equal(t, "BdF", c.LeftLabel)
	assert.Equal(t, "ENL", c.RightLabel)
	assert.Len(t, c.Keys, 9)
	assert.Equal(t, "8", c.Keys[8])
	assert.InDelta(t, 0.6, c.Left[2], 1e-9)
	assert.InDelta(t, 0.25, c.Right[1], 1e-9)
	assert.InDelta(t, 0.75, c.Right[2], 1e-9)
}

func TestCompare_Quantiles(t *testing.T) {
	c, err := Compare(loadBdF(t), loadENL(t), "BdF", "ENL", Histogram{Column: "agepr", Probs: []float64{0.5}})
	require.NoError(t, err)
	assert.Equal(t, []string{"0.5"}, c.Keys)
	assert.InDelta(t, 47.5, c.Left[0], 1e-9)
	assert.InDelta(t, 55, c.Right[0], 1e-9)
}

func TestCompare_WeightedQuantiles(t *testing.T) {
	hs := Weighted([]Histogram{{Column: "agepr", Probs: []float64{0.5}}})
	require.Len(t, hs, 1)
	assert.True(t, hs[0].Weighted)

	c, err := Compare(loadBdF(t), loadENL(t), "BdF", "ENL", hs[0])
	require.NoError(t, err)
	assert.Equal(t, []float64{45}, c.Left)
	// The older household carries three quarters of the weight.
	assert.Equal(t, []float64{70}, c.Right)
}

func TestCompareAll_SkipsMissingColumns(t *testing.T) {
	cs, err := CompareAll(loadBdF(t), loadENL(t), "BdF", "ENL", Histograms())
	require.NoError(t, err)

	var names []string
	for _, c := range cs {
		names = append(names, c.Column)
	}
	assert.Equal(t, []string{"agepr", "nactifs", "tuu"}, names)
}

func TestGroupedWeightedMeans(t *testing.T) {
	levels, err := GroupLevels("niveau_vie_decile")
	require.NoError(t, err)
	assert.Len(t, levels, 10)

	out, err := GroupedWeightedMeans(loadBdF(t), "niveau_vie_decile", levels, []string{"poste_coicop_722", "depenses_carburants"}, ColumnWeight)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Len())

	poste, _ := out.Float("poste_coicop_722")
	assert.InDelta(t, 1000.0/3, poste[0], 1e-9)
	assert.InDelta(t, 800, poste[1], 1e-9)
	assert.True(t, math.IsNaN(poste[2]))

	carbu, _ := out.Float("depenses_carburants")
	assert.InDelta(t, (180*100+420*200)/300.0, carbu[0], 1e-9)

	_, err = GroupLevels("zeat")
	assert.Error(t, err)
}

func TestPrepareMatching(t *testing.T) {
	dir := t.TempDir()
	paths, err := PrepareMatching(dir, "erfs", map[string]*frame.Frame{
		"erfs": loadBdF(t),
		"bdf":  loadBdF(t),
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "matching", "matching_erfs", "data_matching_bdf.csv"), paths[0])
	assert.Equal(t, MatchingFile(dir, "erfs", "erfs"), paths[1])

	written, err := frame.Load(paths[1], ColumnIdent)
	require.NoError(t, err)
	class, err := written.Float(ColumnDonationClass)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 4}, class)
}
