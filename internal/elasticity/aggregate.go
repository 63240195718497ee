package elasticity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jszwec/csvutil"

	"github.com/incidence-dev/incidence/internal/stats"
)

// EstimatedGoods is the number of goods in a demand-system estimation file.
const EstimatedGoods = 3

// Estimate is one household row of a demand-system estimation: total
// consumption, income elasticities mu_i and own-price elasticities ce_i_i.
type Estimate struct {
	DepensesTot float64 `csv:"depenses_tot"`
	Mu1         float64 `csv:"mu_1"`
	Mu2         float64 `csv:"mu_2"`
	Mu3         float64 `csv:"mu_3"`
	CE11        float64 `csv:"ce_1_1"`
	CE22        float64 `csv:"ce_2_2"`
	CE33        float64 `csv:"ce_3_3"`
}

func (e Estimate) mu() [EstimatedGoods]float64 { return [EstimatedGoods]float64{e.Mu1, e.Mu2, e.Mu3} }
func (e Estimate) ce() [EstimatedGoods]float64 { return [EstimatedGoods]float64{e.CE11, e.CE22, e.CE33} }

// Bound is an aggregated elasticity with its 95% confidence interval.
type Bound struct {
	Value float64
	Lower float64
	Upper float64
}

// Result holds the population elasticities of one estimation.
type Result struct {
	Name          string
	Households    int
	Income        [EstimatedGoods]Bound
	Uncompensated [EstimatedGoods]float64
}

// Aggregate weights household elasticities by each household's share of
// total consumption. Shares must sum to 1 within stats.ShareTolerance.
// Missing values count as 0 once shares are computed.
func Aggregate(name string, rows []Estimate) (Result, error) {
	res := Result{Name: name, Households: len(rows)}
	if len(rows) == 0 {
		return res, fmt.Errorf("aggregating %s: no households", name)
	}

	var total float64
	for _, r := range rows {
		if !math.IsNaN(r.DepensesTot) {
			total += r.DepensesTot
		}
	}
	shares := make([]float64, len(rows))
	for i, r := range rows {
		shares[i] = r.DepensesTot / total
	}
	stats.ZeroNonFinite(shares)
	if err := stats.CheckShares(shares); err != nil {
		return res, fmt.Errorf("aggregating %s: %w", name, err)
	}

	for g := 0; g < EstimatedGoods; g++ {
		mu := make([]float64, len(rows))
		var income, uncomp float64
		for i, r := range rows {
			mu[i] = zeroNaN(r.mu()[g])
			income += mu[i] * shares[i]
			uncomp += zeroNaN(r.ce()[g]) * shares[i]
		}
		margin := 1.96 * stats.StdDev(mu) / math.Sqrt(float64(len(rows)))
		res.Income[g] = Bound{Value: income, Lower: income - margin, Upper: income + margin}
		res.Uncompensated[g] = uncomp
	}
	return res, nil
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// ReadEstimates reads a demand-system estimation CSV. Empty cells are NaN.
func ReadEstimates(r io.Reader) ([]Estimate, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading estimation header: %w", err)
	}
	dec.Map = func(field, _ string, v any) string {
		if _, ok := v.(float64); ok && (field == "" || field == "nan" || field == "NA") {
			return "NaN"
		}
		return field
	}

	var rows []Estimate
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding estimation: %w", err)
	}
	return rows, nil
}

// LoadEstimates reads a demand-system estimation file.
func LoadEstimates(path string) ([]Estimate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening estimation: %w", err)
	}
	defer f.Close()

	rows, err := ReadEstimates(f)
	if err != nil {
		return nil, fmt.Errorf("reading estimation %s: %w", path, err)
	}
	return rows, nil
}
