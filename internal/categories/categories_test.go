package categories

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/model"
	"github.com/incidence-dev/incidence/internal/naming"
)

func TestSegments_TwoRanges(t *testing.T) {
	table := []model.CategoryAssignment{
		{Code: "1", Category: "A", Start: 1994, Stop: 2014},
		{Code: "2", Category: "A", Start: 1994, Stop: 2014},
		{Code: "3", Category: "A", Start: 2001, Stop: 2014},
	}

	got, err := Segments(table, "A")
	require.NoError(t, err)

	want := []Segment{
		{Category: "A", Start: 1994, Stop: 2000, Codes: []string{"1", "2"}},
		{Category: "A", Start: 2001, Stop: 2014, Codes: []string{"1", "2", "3"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Segments mismatch (-want +got):\n%s", diff)
	}
}

func TestSegments_NeverChanges(t *testing.T) {
	table := []model.CategoryAssignment{{Code: "1", Category: "A", Start: 1990, Stop: 2100}}

	got, err := Segments(table, "A")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, YearStart, got[0].Start)
	assert.Equal(t, YearStop, got[0].Stop)
}

func TestSegments_ChangeInFinalYear(t *testing.T) {
	table := []model.CategoryAssignment{
		{Code: "1", Category: "A", Start: 1994, Stop: 2014},
		{Code: "2", Category: "A", Start: 2014, Stop: 2014},
	}

	got, err := Segments(table, "A")
	require.NoError(t, err)

	want := []Segment{
		{Category: "A", Start: 1994, Stop: 2013, Codes: []string{"1"}},
		{Category: "A", Start: 2014, Stop: 2014, Codes: []string{"1", "2"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Segments mismatch (-want +got):\n%s", diff)
	}
}

func TestSegments_NoTable(t *testing.T) {
	_, err := Segments(nil, "A")
	assert.ErrorIs(t, err, ErrNoCategoryTable)

	_, err = AllSegments(nil)
	assert.ErrorIs(t, err, ErrNoCategoryTable)

	_, err = Generate(engine.NewSystem(nil), nil, Options{})
	assert.ErrorIs(t, err, ErrNoCategoryTable)
}

func TestSegments_PartitionWindow(t *testing.T) {
	segs, err := AllSegments(DefaultTable())
	require.NoError(t, err)

	byCategory := make(map[string][]Segment)
	for _, s := range segs {
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}
	require.NotEmpty(t, byCategory)

	for cat, list := range byCategory {
		next := YearStart
		for _, s := range list {
			assert.Equal(t, next, s.Start, "%s: gap or overlap before %d", cat, s.Start)
			assert.LessOrEqual(t, s.Start, s.Stop, cat)
			next = s.Stop + 1
		}
		assert.Equal(t, YearStop+1, next, "%s does not reach %d", cat, YearStop)
	}

	// Restaurants change rate twice, public transport once.
	assert.Len(t, byCategory[model.CategoryVATFull], 2)
	assert.Len(t, byCategory[model.CategoryVATReduced], 3)
	assert.Len(t, byCategory[model.CategoryVATIntermediate], 2)
}

func TestReadWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, DefaultTable()))
	assert.True(t, strings.HasPrefix(buf.String(), "code_coicop,categorie_fiscale,start,stop\n"))

	got, err := ReadTable(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultTable(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTable_Empty(t *testing.T) {
	got, err := ReadTable(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, nil))
	assert.Equal(t, "code_coicop,categorie_fiscale,start,stop\n", buf.String())

	got, err = ReadTable(&buf)
	require.NoError(t, err, "header-only table")
	assert.Empty(t, got)
}

func TestReadTable_BadYear(t *testing.T) {
	_, err := ReadTable(strings.NewReader("code_coicop,categorie_fiscale,start,stop\n01,tva_taux_plein,abc,2014\n"))
	assert.Error(t, err)
}

func TestServiceFromTestdata(t *testing.T) {
	svc, err := Load("../../testdata/categories.csv")
	require.NoError(t, err)

	assert.Len(t, svc.All(), 10)
	assert.Contains(t, svc.Codes(), "11.1.1.1.1")
	assert.Equal(t, []string{
		model.CategoryFuel,
		model.CategoryVATIntermediate,
		model.CategoryVATFull,
		model.CategoryVATReduced,
		model.CategoryVATSuperReduced,
		model.CategoryWine,
	}, svc.Categories())

	cat, ok := svc.CategoryOf("11.1.1.1.1", 2010)
	assert.True(t, ok)
	assert.Equal(t, model.CategoryVATReduced, cat)

	_, ok = svc.CategoryOf("11.1.1.1.1", 1990)
	assert.False(t, ok)
}

func TestServiceSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "categories.csv")
	require.NoError(t, NewService(DefaultTable()).Save(path))

	svc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, svc.All(), len(DefaultTable()))
}

func productFrame(t *testing.T, values map[string][]float64) *frame.Frame {
	t.Helper()
	f := frame.New(2)
	for code, v := range values {
		require.NoError(t, f.SetFloat(naming.ProductVariable(code), v))
	}
	return f
}

func TestGenerate(t *testing.T) {
	table := []model.CategoryAssignment{
		{Code: "1", Category: "A", Start: 1994, Stop: 2014},
		{Code: "2", Category: "A", Start: 1994, Stop: 2014},
		{Code: "3", Category: "A", Start: 2001, Stop: 2014},
		{Code: "4", Category: "B", Start: 1994, Stop: 2014},
	}
	core, logs := observer.New(zapcore.InfoLevel)

	system := engine.NewSystem(nil)
	segs, err := Generate(system, table, Options{Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Len(t, segs, 3)
	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, "creating fiscal category", logs.All()[0].Message)

	v, ok := system.Variable("depenses_ht_A")
	require.True(t, ok)
	names := []string{v.Formulas[0].Name, v.Formulas[1].Name}
	assert.Equal(t, []string{"function_1994_2000", "function_2001_2014"}, names)
	assert.True(t, system.Has(naming.ProductColumn("3")))

	input := productFrame(t, map[string][]float64{
		"1": {1, 10},
		"2": {2, 20},
		"3": {4, 40},
		"4": {8, 80},
	})

	got, err := engine.NewSimulation(system, input, 2000).Calculate("depenses_ht_A")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 30}, got)

	got, err = engine.NewSimulation(system, input, 2005).Calculate("depenses_ht_A")
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 70}, got)

	// The final segment stays in force after the table.
	got, err = engine.NewSimulation(system, input, 2016).Calculate("depenses_ht_A")
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 70}, got)

	// Before the table no formula applies.
	got, err = engine.NewSimulation(system, input, 1990).Calculate("depenses_ht_A")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got)

	// Generating twice without reform mode fails on the duplicate.
	_, err = Generate(system, table, Options{})
	assert.Error(t, err)
}

func TestCheckYear(t *testing.T) {
	assert.ErrorIs(t, CheckYear(YearStart-1), ErrYearOutOfRange)
	assert.NoError(t, CheckYear(YearStart))
	assert.NoError(t, CheckYear(2017))
}

func TestFormulaStop(t *testing.T) {
	assert.Equal(t, 2000, FormulaStop(2000))
	assert.Equal(t, 0, FormulaStop(YearStop))
	assert.Equal(t, 0, FormulaStop(YearStop+3))
}

func TestGenerate_ReformMode(t *testing.T) {
	reference := []model.CategoryAssignment{
		{Code: "1", Category: "A", Start: 1994, Stop: 2014},
		{Code: "2", Category: "vin", Start: 1994, Stop: 2014},
	}
	reformed := []model.CategoryAssignment{
		{Code: "1", Category: "A", Start: 1994, Stop: 2014},
		{Code: "2", Category: "", Start: 1994, Stop: 2014},
		{Code: "5", Category: "C", Start: 1994, Stop: 2014},
	}

	system := engine.NewSystem(nil)
	_, err := Generate(system, reference, Options{})
	require.NoError(t, err)

	_, err = Generate(system, reformed, Options{Reform: true, Reference: reference})
	require.NoError(t, err)
	assert.True(t, system.Has("depenses_ht_C"), "new category is added")
	assert.False(t, system.Has("depenses_ht_"), "empty category is never generated")

	input := productFrame(t, map[string][]float64{"1": {1, 1}, "2": {5, 5}, "5": {2, 3}})
	got, err := engine.NewSimulation(system, input, 2010).Calculate("depenses_ht_vin")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got, "wine left its category")

	got, err = engine.NewSimulation(system, input, 2010).Calculate("depenses_ht_C")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, got)
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate(DefaultTable()))

	table := []model.CategoryAssignment{
		{Code: "1", Category: model.CategoryVATFull, Start: 2000, Stop: 1999},
		{Code: "2", Category: model.CategoryVATFull, Start: 1980, Stop: 1990},
		{Code: "", Category: model.CategoryVATFull, Start: 1994, Stop: 2014},
		{Code: "3", Category: "tva_imaginaire", Start: 1994, Stop: 2014},
		{Code: "4", Category: model.CategoryVATFull, Start: 1994, Stop: 2005},
		{Code: "4", Category: model.CategoryVATReduced, Start: 2005, Stop: 2014},
	}

	errs := Validate(table)
	checks := make([]string, len(errs))
	for i, e := range errs {
		checks[i] = e.Check
	}
	assert.Equal(t, []string{"interval", "window", "code", "category", "overlap"}, checks)
	assert.Equal(t, "overlap [4]: in tva_taux_plein and tva_taux_reduit in 2005", errs[4].Error())
}

func TestWriteSegments(t *testing.T) {
	segs := []Segment{
		{Category: "tva_taux_plein", Start: 1994, Stop: 2000, Codes: []string{"02.1.1.1.1", "07.2.2.1.1"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSegments(&buf, segs))
	assert.Equal(t,
		"categorie_fiscale,start,stop,function,codes_coicop\n"+
			"tva_taux_plein,1994,2000,"+naming.FunctionName(1994, 2000)+",02.1.1.1.1 07.2.2.1.1\n",
		buf.String())

	buf.Reset()
	require.NoError(t, WriteSegments(&buf, nil))
	assert.Equal(t, "categorie_fiscale,start,stop,function,codes_coicop\n", buf.String())
}
