package elasticity

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/stats"
)

func TestLoadHouseholds(t *testing.T) {
	rows, err := LoadHouseholds("../../testdata/elasticities.csv")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "m001", rows[0].IdentMen)
	assert.InDelta(t, -0.3, rows[0].Price11, 1e-9)
	assert.InDelta(t, 0.01, rows[0].Price12, 1e-9)
	assert.InDelta(t, -0.45, rows[3].Price44, 1e-9)
	assert.Len(t, rows[0].Values(), len(Names()))
}

func TestAttach(t *testing.T) {
	f := frame.New(3)
	require.NoError(t, f.SetText("ident_men", []string{"m002", "unknown", "m001"}))

	rows := []Household{
		{IdentMen: "m001", Price11: -0.3, Exp2: 0.9},
		{IdentMen: "m002", Price11: -0.4},
	}
	matched, err := Attach(f, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, matched)

	p11, err := f.Float("elas_price_1_1")
	require.NoError(t, err)
	assert.Equal(t, []float64{-0.4, 0, -0.3}, p11)

	e2, err := f.Float("elas_exp_2")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0.9}, e2)

	_, err = Attach(frame.New(1), rows)
	assert.ErrorIs(t, err, frame.ErrNoColumn)
}

func TestRegister(t *testing.T) {
	system := engine.NewSystem(nil)
	require.NoError(t, Register(system))
	require.NoError(t, Register(system), "registering twice is a no-op")

	for _, name := range Names() {
		assert.True(t, system.Has(name), name)
	}

	f := frame.New(2)
	got, err := engine.NewSimulation(system, f, 2011).Calculate("elas_price_2_2")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got)
}

func TestAggregate(t *testing.T) {
	rows, err := LoadEstimates("../../testdata/quaids/data_quaids_carbu_all.csv")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.True(t, math.IsNaN(rows[2].DepensesTot))

	res, err := Aggregate("carbu_all", rows)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Households)

	assert.InDelta(t, 0.80, res.Income[0].Value, 1e-9)
	assert.InDelta(t, 0.18, res.Income[1].Value, 1e-9)
	assert.InDelta(t, -0.40, res.Uncompensated[0], 1e-9)

	margin := 1.96 * math.Sqrt(0.05/3) / 2
	assert.InDelta(t, 0.80-margin, res.Income[0].Lower, 1e-9)
	assert.InDelta(t, 0.80+margin, res.Income[0].Upper, 1e-9)
}

func TestAggregate_SharesGate(t *testing.T) {
	rows := []Estimate{{DepensesTot: 100, Mu1: 1}, {DepensesTot: -100, Mu1: 1}}
	_, err := Aggregate("broken", rows)
	assert.ErrorIs(t, err, stats.ErrSharesDoNotSumToOne)

	_, err = Aggregate("empty", nil)
	assert.Error(t, err)
}

func TestReadEstimates_Empty(t *testing.T) {
	rows, err := ReadEstimates(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = ReadEstimates(strings.NewReader("depenses_tot,mu_1,mu_2,mu_3\n"))
	require.NoError(t, err, "header-only estimation")
	assert.Empty(t, rows)
}

func TestReadHouseholds_HeaderOnly(t *testing.T) {
	rows, err := ReadHouseholds(strings.NewReader("ident_men\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
