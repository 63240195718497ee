package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/report"
	"github.com/incidence-dev/incidence/internal/scenario"
	"github.com/incidence-dev/incidence/internal/store"
)

// DeltaVariable is the aggregate printed after a reform simulation.
const DeltaVariable = "total_taxes_indirectes"

func newSimulateCommand(a *app) *cobra.Command {
	var year int
	var reformKey, source string
	var record bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Compute indirect taxes for every surveyed household",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("year") {
				year = a.cfg.Simulation.Year
			}
			if !cmd.Flags().Changed("reform") {
				reformKey = a.cfg.Simulation.Reform
			}
			return a.runSimulate(cmd.Context(), source, year, reformKey, record)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "legislation year (default from config)")
	cmd.Flags().StringVar(&reformKey, "reform", "", "reform key (default from config)")
	cmd.Flags().StringVar(&source, "source", "bdf", "survey source")
	cmd.Flags().BoolVar(&record, "record", false, "store decile results in the run history")
	return cmd
}

// SimulationFile is the household output of a simulation, under outputDir.
func SimulationFile(outputDir string, year int, reformKey string) string {
	name := "menages_" + strconv.Itoa(year)
	if reformKey != "" {
		name += "_" + reformKey
	}
	return filepath.Join(outputDir, "simulation", name+".csv")
}

func (a *app) runSimulate(ctx context.Context, source string, year int, reformKey string, record bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	params, err := a.loadParams()
	if err != nil {
		return err
	}
	table, err := a.loadTable()
	if err != nil {
		return err
	}
	households, err := a.loadSurvey(source)
	if err != nil {
		return err
	}

	sc, err := scenario.New(params, table, reformKey, a.logger)
	if err != nil {
		return err
	}
	res, err := sc.Run(ctx, households, year)
	if err != nil {
		return err
	}

	var runs *store.RunStore
	var runID string
	if record {
		db, err := store.Open(a.path(a.cfg.Paths.Database))
		if err != nil {
			return err
		}
		defer db.Close()
		runs = store.NewRunStore(db)
		run, err := runs.Create(ctx, res.Year, res.ReformKey, households.Len())
		if err != nil {
			return err
		}
		runID = run.ID
	}

	outputs := map[string]*frame.Frame{"": res.Reference}
	if res.Reform != nil {
		outputs[reformKey] = res.Reform
	}
	for key, f := range outputs {
		path := SimulationFile(a.outputDir(), year, key)
		if err := frame.Save(path, f); err != nil {
			return err
		}
		if err := a.record("simulate", path, f.Len(), runID); err != nil {
			return err
		}
	}

	vars := decileVariables()
	means, err := report.WeightedAverageGrouped(res.Reference, report.ColumnDecile, vars, report.ColumnWeight)
	if err != nil {
		return err
	}
	t, err := report.FromFrame(fmt.Sprintf("Moyennes par décile (%d)", year), report.ColumnDecile, means)
	if err != nil {
		return err
	}
	decilePath := filepath.Join(a.outputDir(), "simulation", "deciles_"+strconv.Itoa(year)+".csv")
	if err := report.Save(decilePath, t); err != nil {
		return err
	}
	if err := a.record("simulate", decilePath, len(t.Rows), runID); err != nil {
		return err
	}

	total, err := res.Total(DeltaVariable)
	if err != nil {
		return err
	}
	fmt.Printf("Simulated %d households for %d: %s = %s\n",
		households.Len(), year, DeltaVariable, report.FormatNumber(total))
	if res.Reform != nil {
		delta, err := res.Delta(DeltaVariable)
		if err != nil {
			return err
		}
		fmt.Printf("Reform %s: %s change = %s\n", reformKey, DeltaVariable, report.FormatNumber(delta))
	}

	if runs == nil {
		return nil
	}
	if err := a.storeDeciles(ctx, runs, runID, res, vars); err != nil {
		return err
	}
	fmt.Printf("Recorded run %s\n", runID)
	return nil
}

// storeDeciles stores the reference decile means of a recorded run, or the
// reformed ones when a reform was evaluated.
func (a *app) storeDeciles(ctx context.Context, runs *store.RunStore, runID string, res *scenario.Result, vars []string) error {
	f := res.Reference
	if res.Reform != nil {
		f = res.Reform
	}
	rows, err := report.DecileRows(f, vars)
	if err != nil {
		return err
	}
	if err := runs.AddDeciles(ctx, runID, rows); err != nil {
		return err
	}
	a.logger.Info("run recorded", zap.String("run_id", runID), zap.Int("deciles", len(rows)))
	return nil
}

func decileVariables() []string {
	var vars []string
	for _, name := range scenario.BaseOutputs() {
		if name == report.ColumnWeight || name == report.ColumnDecile {
			continue
		}
		vars = append(vars, name)
	}
	return vars
}
