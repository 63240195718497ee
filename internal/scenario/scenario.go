// Package scenario composes the tax-benefit system and evaluates households
// under the reference legislation and, optionally, a reform.
package scenario

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/incidence-dev/incidence/internal/categories"
	"github.com/incidence-dev/incidence/internal/elasticity"
	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/legislation"
	"github.com/incidence-dev/incidence/internal/model"
	"github.com/incidence-dev/incidence/internal/reform"
	"github.com/incidence-dev/incidence/internal/stats"
	"github.com/incidence-dev/incidence/internal/taxes"
)

// BaseOutputs are the variables written for every simulated household.
func BaseOutputs() []string {
	return []string{
		"pondmen",
		"rev_disponible",
		"niveau_de_vie",
		"niveau_vie_decile",
		"tva_total",
		"ticpe_totale",
		"total_taxes_assurances",
		"total_droits_accises_alcools",
		"total_droits_accises_tabac",
		"total_taxes_energies",
		"total_taxes_indirectes",
		"depenses_carburants_ajustees",
	}
}

// BaseSystem builds the reference system: fiscal categories generated from
// table, household inputs, baseline taxes, elasticities and the
// price-adjusted fuel expenditures.
func BaseSystem(params *legislation.Tree, table []model.CategoryAssignment, logger *zap.Logger) (*engine.System, error) {
	system := engine.NewSystem(params)
	if _, err := categories.Generate(system, table, categories.Options{Logger: logger}); err != nil {
		return nil, fmt.Errorf("generating fiscal categories: %w", err)
	}
	if err := taxes.Register(system, table); err != nil {
		return nil, fmt.Errorf("registering taxes: %w", err)
	}
	if err := elasticity.Register(system); err != nil {
		return nil, fmt.Errorf("registering elasticities: %w", err)
	}
	if err := reform.RegisterAdjustedExpenditures(system); err != nil {
		return nil, fmt.Errorf("registering adjusted expenditures: %w", err)
	}
	return system, nil
}

// Scenario pairs the reference system with an optional reformed clone.
type Scenario struct {
	Reference *engine.System
	Reform    *engine.System
	ReformKey string
	logger    *zap.Logger
}

// New builds the reference system and applies the reform named by
// reformKey, if any.
func New(params *legislation.Tree, table []model.CategoryAssignment, reformKey string, logger *zap.Logger) (*Scenario, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := BaseSystem(params, table, logger)
	if err != nil {
		return nil, err
	}
	s := &Scenario{Reference: base, ReformKey: reformKey, logger: logger}
	if reformKey == "" {
		return s, nil
	}

	r, err := reform.ByKey(reformKey, table, logger)
	if err != nil {
		return nil, err
	}
	if s.Reform, err = base.WithReform(r); err != nil {
		return nil, err
	}
	logger.Debug("reform applied", zap.String("reform", r.Key), zap.String("name", r.Name))
	return s, nil
}

// Result holds the evaluated outputs. Reform is nil without a reform.
type Result struct {
	Year      int
	ReformKey string
	Reference *frame.Frame
	Reform    *frame.Frame
}

// Run evaluates households for year. The reference and the reform are
// evaluated concurrently; either failure aborts the run.
func (s *Scenario) Run(ctx context.Context, households *frame.Frame, year int) (*Result, error) {
	if err := categories.CheckYear(year); err != nil {
		return nil, err
	}
	if year > categories.YearStop {
		s.logger.Warn("fiscal categories carried forward",
			zap.Int("year", year),
			zap.Int("table_stop", categories.YearStop),
		)
	}
	res := &Result{Year: year, ReformKey: s.ReformKey}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := evaluate(ctx, s.Reference, households, year, BaseOutputs())
		if err != nil {
			return fmt.Errorf("reference: %w", err)
		}
		res.Reference = f
		return nil
	})
	if s.Reform != nil {
		g.Go(func() error {
			outputs := append(BaseOutputs(), reform.Outputs(s.ReformKey)...)
			f, err := evaluate(ctx, s.Reform, households, year, outputs)
			if err != nil {
				return fmt.Errorf("reform %s: %w", s.ReformKey, err)
			}
			res.Reform = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("simulation done",
		zap.Int("year", year),
		zap.String("reform", s.ReformKey),
		zap.Int("households", households.Len()),
	)
	return res, nil
}

func evaluate(ctx context.Context, system *engine.System, households *frame.Frame, year int, names []string) (*frame.Frame, error) {
	sim := engine.NewSimulation(system, households, year)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := sim.Calculate(name); err != nil {
			return nil, err
		}
	}
	return sim.Frame(names...)
}

// Delta returns the weighted total of reform minus reference for a variable
// present in both outputs.
func (r *Result) Delta(name string) (float64, error) {
	if r.Reform == nil {
		return 0, fmt.Errorf("no reform evaluated")
	}
	ref, err := r.Reference.Float(name)
	if err != nil {
		return 0, err
	}
	reformed, err := r.Reform.Float(name)
	if err != nil {
		return 0, err
	}
	w, err := r.Reference.Float("pondmen")
	if err != nil {
		return 0, err
	}
	return reform.SumRevenueDelta(reformed, ref, w), nil
}

// Total returns the weighted total of a reference variable.
func (r *Result) Total(name string) (float64, error) {
	v, err := r.Reference.Float(name)
	if err != nil {
		return 0, err
	}
	w, err := r.Reference.Float("pondmen")
	if err != nil {
		return 0, err
	}
	return stats.WeightedSum(v, w), nil
}
