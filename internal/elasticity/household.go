package elasticity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jszwec/csvutil"

	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/frame"
)

// Goods of the demand system: 1 fuels, 2 housing energy, 3 food,
// 4 other non-durables.
const Goods = 4

// Household holds the estimated elasticities of one household.
type Household struct {
	IdentMen string  `csv:"ident_men"`
	Exp1     float64 `csv:"elas_exp_1"`
	Exp2     float64 `csv:"elas_exp_2"`
	Exp3     float64 `csv:"elas_exp_3"`
	Exp4     float64 `csv:"elas_exp_4"`
	Price11  float64 `csv:"elas_price_1_1"`
	Price12  float64 `csv:"elas_price_1_2"`
	Price13  float64 `csv:"elas_price_1_3"`
	Price14  float64 `csv:"elas_price_1_4"`
	Price21  float64 `csv:"elas_price_2_1"`
	Price22  float64 `csv:"elas_price_2_2"`
	Price23  float64 `csv:"elas_price_2_3"`
	Price24  float64 `csv:"elas_price_2_4"`
	Price31  float64 `csv:"elas_price_3_1"`
	Price32  float64 `csv:"elas_price_3_2"`
	Price33  float64 `csv:"elas_price_3_3"`
	Price34  float64 `csv:"elas_price_3_4"`
	Price41  float64 `csv:"elas_price_4_1"`
	Price42  float64 `csv:"elas_price_4_2"`
	Price43  float64 `csv:"elas_price_4_3"`
	Price44  float64 `csv:"elas_price_4_4"`
}

// Values returns the elasticities by variable name.
func (h Household) Values() map[string]float64 {
	return map[string]float64{
		"elas_exp_1": h.Exp1, "elas_exp_2": h.Exp2, "elas_exp_3": h.Exp3, "elas_exp_4": h.Exp4,
		"elas_price_1_1": h.Price11, "elas_price_1_2": h.Price12, "elas_price_1_3": h.Price13, "elas_price_1_4": h.Price14,
		"elas_price_2_1": h.Price21, "elas_price_2_2": h.Price22, "elas_price_2_3": h.Price23, "elas_price_2_4": h.Price24,
		"elas_price_3_1": h.Price31, "elas_price_3_2": h.Price32, "elas_price_3_3": h.Price33, "elas_price_3_4": h.Price34,
		"elas_price_4_1": h.Price41, "elas_price_4_2": h.Price42, "elas_price_4_3": h.Price43, "elas_price_4_4": h.Price44,
	}
}

var labels = []struct{ name, label string }{
	{"elas_exp_1", "Elasticité dépense carburants"},
	{"elas_exp_2", "Elasticité dépense énergie logement"},
	{"elas_exp_3", "Elasticité dépense alimentaire"},
	{"elas_exp_4", "Elasticité dépense autres biens non durables"},
	{"elas_price_1_1", "Elasticité prix carburants"},
	{"elas_price_1_2", "Elasticité prix croisée carburants - énergie logement"},
	{"elas_price_1_3", "Elasticité prix croisée carburants - alimentaire"},
	{"elas_price_1_4", "Elasticité prix croisée carburants - autres biens non durables"},
	{"elas_price_2_1", "Elasticité prix croisée énergie logement - carburants"},
	{"elas_price_2_2", "Elasticité prix énergie logement"},
	{"elas_price_2_3", "Elasticité prix croisée énergie logement - alimentaire"},
	{"elas_price_2_4", "Elasticité prix croisée énergie logement - autres biens non durables"},
	{"elas_price_3_1", "Elasticité prix croisée alimentaire - carburants"},
	{"elas_price_3_2", "Elasticité prix croisée alimentaire - énergie logement"},
	{"elas_price_3_3", "Elasticité prix alimentaire"},
	{"elas_price_3_4", "Elasticité prix croisée alimentaire - autres biens non durables"},
	{"elas_price_4_1", "Elasticité prix croisée autres biens non durables - carburants"},
	{"elas_price_4_2", "Elasticité prix croisée autres biens non durables - énergie logement"},
	{"elas_price_4_3", "Elasticité prix croisée autres biens non durables - alimentaire"},
	{"elas_price_4_4", "Elasticité prix autres biens non durables"},
}

// Names returns the elasticity variable names.
func Names() []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.name
	}
	return out
}

// Register adds the elasticity variables to system. Without input they are 0.
func Register(system *engine.System) error {
	for _, l := range labels {
		if system.Has(l.name) {
			continue
		}
		if err := system.Add(engine.Variable{Name: l.name, Label: l.label}); err != nil {
			return fmt.Errorf("registering %s: %w", l.name, err)
		}
	}
	return nil
}

// ReadHouseholds reads a household elasticity CSV.
func ReadHouseholds(r io.Reader) ([]Household, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading elasticity header: %w", err)
	}
	var rows []Household
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding elasticities: %w", err)
	}
	return rows, nil
}

// LoadHouseholds reads a household elasticity file.
func LoadHouseholds(path string) ([]Household, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening elasticities: %w", err)
	}
	defer f.Close()

	rows, err := ReadHouseholds(f)
	if err != nil {
		return nil, fmt.Errorf("reading elasticities %s: %w", path, err)
	}
	return rows, nil
}

// Attach joins elasticities onto f by ident_men. Households without an
// estimate get 0. It returns the number of matched households.
func Attach(f *frame.Frame, rows []Household) (int, error) {
	ids, err := f.Text("ident_men")
	if err != nil {
		return 0, fmt.Errorf("attaching elasticities: %w", err)
	}

	byID := make(map[string]map[string]float64, len(rows))
	for _, h := range rows {
		byID[h.IdentMen] = h.Values()
	}

	cols := make(map[string][]float64, len(labels))
	for _, l := range labels {
		cols[l.name] = make([]float64, f.Len())
	}
	matched := 0
	for i, id := range ids {
		vals, ok := byID[id]
		if !ok {
			continue
		}
		matched++
		for name, v := range vals {
			cols[name][i] = v
		}
	}
	for _, l := range labels {
		if err := f.SetFloat(l.name, cols[l.name]); err != nil {
			return 0, err
		}
	}
	return matched, nil
}
