package legislation

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestParameterAt(t *testing.T) {
	p := NewParameter("imposition_indirecte.tva.taux_normal", "", "")
	p.Set(date(1995, 8, 1), dec("0.206"))
	p.Set(date(2000, 4, 1), dec("0.196"))
	p.Set(date(2014, 1, 1), dec("0.2"))

	tests := []struct {
		at   time.Time
		want string
		ok   bool
	}{
		{date(1995, 7, 31), "", false},
		{date(1995, 8, 1), "0.206", true},
		{date(2000, 3, 31), "0.206", true},
		{date(2000, 4, 1), "0.196", true},
		{date(2013, 12, 31), "0.196", true},
		{date(2020, 1, 1), "0.2", true},
	}
	for _, tt := range tests {
		v, ok := p.At(tt.at)
		assert.Equal(t, tt.ok, ok, "At(%s)", tt.at.Format(dateFormat))
		if tt.ok {
			assert.Equal(t, tt.want, v.String(), "At(%s)", tt.at.Format(dateFormat))
		}
	}
}

func TestParameterClosedByNull(t *testing.T) {
	p := NewParameter("x", "", "")
	p.Set(date(2000, 1, 1), dec("1"))
	p.Set(date(2010, 1, 1), nil)

	_, ok := p.At(date(2009, 6, 1))
	assert.True(t, ok)
	_, ok = p.At(date(2010, 1, 1))
	assert.False(t, ok)
}

func TestParameterUpdate(t *testing.T) {
	p := NewParameter("prix_carburants.diesel_ttc", "", "")
	p.Set(date(2013, 1, 1), dec("137.5"))
	p.Set(date(2014, 1, 1), dec("132.7"))
	p.Set(date(2015, 1, 1), dec("115.2"))

	p.Update(date(2014, 1, 1), date(2014, 12, 31), decimal.RequireFromString("142.7"))

	v, _ := p.At(date(2013, 6, 1))
	assert.Equal(t, "137.5", v.String())
	v, _ = p.At(date(2014, 6, 1))
	assert.Equal(t, "142.7", v.String())
	v, _ = p.At(date(2015, 6, 1))
	assert.Equal(t, "115.2", v.String())
}

func TestParameterUpdate_OpenEnded(t *testing.T) {
	p := NewParameter("x", "", "")
	p.Set(date(2010, 1, 1), dec("1"))

	p.Update(date(2014, 1, 1), date(2014, 12, 31), decimal.RequireFromString("2"))

	v, _ := p.At(date(2014, 1, 1))
	assert.Equal(t, "2", v.String())
	v, _ = p.At(date(2016, 1, 1))
	assert.Equal(t, "1", v.String(), "value after the window is restored")
}

func TestTreeGet_NotFound(t *testing.T) {
	tree := New()
	_, err := tree.Get("prix_carburants.diesel_ttc_reference", date(2014, 1, 1))
	assert.ErrorIs(t, err, ErrParameterNotFound)

	p := NewParameter("a.b", "", "")
	p.Set(date(2012, 1, 1), dec("0.07"))
	require.NoError(t, tree.Add(p))

	_, err = tree.Get("a.b", date(2011, 1, 1))
	assert.ErrorIs(t, err, ErrParameterNotFound)

	f, err := tree.Float("a.b", date(2012, 1, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.07, f, 1e-12)
}

func TestTreeAddDuplicate(t *testing.T) {
	tree := New()
	require.NoError(t, tree.Add(NewParameter("a", "", "")))
	assert.Error(t, tree.Add(NewParameter("a", "", "")))
}

func TestChildrenAndReferences(t *testing.T) {
	tree, err := Default()
	require.NoError(t, err)

	children := tree.Children("prix_carburants")
	assert.Equal(t, []string{"prix_carburants.diesel_ttc", "prix_carburants.super_95_ttc"}, children)

	require.NoError(t, tree.AddReferences("prix_carburants"))
	ref, err := tree.Get("prix_carburants.diesel_ttc_reference", Date(2014))
	require.NoError(t, err)
	cur, err := tree.Get("prix_carburants.diesel_ttc", Date(2014))
	require.NoError(t, err)
	assert.True(t, ref.Equal(cur))

	// References are independent copies.
	p, _ := tree.Parameter("prix_carburants.diesel_ttc")
	p.Update(Date(2014), date(2014, 12, 31), ref.Add(decimal.NewFromInt(10)))
	ref2, _ := tree.Get("prix_carburants.diesel_ttc_reference", Date(2014))
	assert.True(t, ref2.Equal(ref))

	assert.ErrorIs(t, tree.AddReferences("nothing_here"), ErrParameterNotFound)
}

func TestCloneIsDeep(t *testing.T) {
	tree, err := Default()
	require.NoError(t, err)
	clone := tree.Clone()

	p, _ := clone.Parameter("imposition_indirecte.tva.taux_normal")
	p.Set(Date(2014), dec("0.5"))

	orig, err := tree.Get("imposition_indirecte.tva.taux_normal", Date(2014))
	require.NoError(t, err)
	assert.Equal(t, "0.2", orig.String())
}

func TestReadWriteRoundTrip(t *testing.T) {
	tree, err := Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tree))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, tree.Paths(), got.Paths())

	for _, path := range tree.Paths() {
		for _, year := range []int{1994, 2000, 2011, 2014, 2017} {
			want, wantErr := tree.Get(path, Date(year))
			have, haveErr := got.Get(path, Date(year))
			assert.Equal(t, wantErr == nil, haveErr == nil, "%s %d", path, year)
			if wantErr == nil {
				assert.True(t, want.Equal(have), "%s %d: %s != %s", path, year, want, have)
			}
		}
	}
}

func TestReadNullAndUnquoted(t *testing.T) {
	doc := `
taxe_carbone.gaz:
  description: Surcroît de prix du gaz
  values:
    "2014-01-01": 0.0012
    "2016-01-01": null
`
	tree, err := Read(strings.NewReader(doc))
	require.NoError(t, err)

	v, err := tree.Get("taxe_carbone.gaz", Date(2015))
	require.NoError(t, err)
	assert.Equal(t, "0.0012", v.String())

	_, err = tree.Get("taxe_carbone.gaz", Date(2016))
	assert.ErrorIs(t, err, ErrParameterNotFound)
}

func TestReadInvalid(t *testing.T) {
	_, err := Read(strings.NewReader("a:\n  values:\n    \"not-a-date\": \"1\"\n"))
	assert.Error(t, err)

	_, err = Read(strings.NewReader("a:\n  values:\n    \"2014-01-01\": \"abc\"\n"))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	tree, err := Default()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "legislation.yaml")
	require.NoError(t, Save(path, tree))

	got, err := Load(path)
	require.NoError(t, err)
	v, err := got.Get("imposition_indirecte.tva.taux_intermediaire", Date(2013))
	require.NoError(t, err)
	assert.Equal(t, "0.07", v.String())
}
