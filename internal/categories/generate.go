package categories

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/model"
	"github.com/incidence-dev/incidence/internal/naming"
)

// Options controls Generate.
type Options struct {
	// Reform switches to reform mode: categories of Reference are
	// generated too, and existing variables are updated instead of added.
	Reform    bool
	Reference []model.CategoryAssignment
	Logger    *zap.Logger
}

// Generate registers one depenses_ht_<category> variable per category of
// table, with one dated formula per segment summing the pre-tax expenditure
// of the segment's product codes. The final segment stays in force after
// YearStop. It also registers the tax-inclusive product
// columns as input variables. It returns the emitted segments.
func Generate(system *engine.System, table []model.CategoryAssignment, opts Options) ([]Segment, error) {
	if table == nil {
		return nil, ErrNoCategoryTable
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cats := categoriesOf(table)
	if opts.Reform {
		cats = union(cats, categoriesOf(opts.Reference))
	}

	if err := registerProductInputs(system, table); err != nil {
		return nil, err
	}

	var emitted []Segment
	for _, cat := range cats {
		segs, err := Segments(table, cat)
		if err != nil {
			return nil, err
		}

		v := engine.Variable{
			Name:  naming.CategoryVariable(cat),
			Label: "Dépenses hors taxes: " + cat,
		}
		for _, seg := range segs {
			logger.Info("creating fiscal category",
				zap.String("category", cat),
				zap.Int("start", seg.Start),
				zap.Int("stop", seg.Stop),
				zap.Strings("products", seg.Codes),
			)
			v.Formulas = append(v.Formulas, engine.DatedFormula{
				Name:  naming.FunctionName(seg.Start, seg.Stop),
				Start: seg.Start,
				Stop:  FormulaStop(seg.Stop),
				Fn:    sumProducts(seg.Codes),
			})
		}

		if opts.Reform {
			err = system.Put(v)
		} else {
			err = system.Add(v)
		}
		if err != nil {
			return nil, fmt.Errorf("registering %s: %w", v.Name, err)
		}
		emitted = append(emitted, segs...)
	}
	return emitted, nil
}

func sumProducts(codes []string) engine.Formula {
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = naming.ProductVariable(c)
	}
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		return sim.Sum(names...)
	}
}

func registerProductInputs(system *engine.System, table []model.CategoryAssignment) error {
	for _, code := range NewService(table).Codes() {
		name := naming.ProductColumn(code)
		if system.Has(name) {
			continue
		}
		if err := system.Add(engine.Variable{Name: name, Label: "Dépenses TTC: " + code}); err != nil {
			return fmt.Errorf("registering %s: %w", name, err)
		}
	}
	return nil
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
