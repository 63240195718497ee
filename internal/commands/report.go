package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/report"
	"github.com/incidence-dev/incidence/internal/survey"
)

// barWidth is the length of the largest bar in chart output.
const barWidth = 40

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate simulation outputs by living-standard decile",
	}
	cmd.PersistentFlags().Bool("bars", false, "draw bar charts instead of tables")
	cmd.AddCommand(newReportBurdenCommand(a))
	cmd.AddCommand(newReportEffortCommand(a))
	cmd.AddCommand(newReportEngelCommand(a))
	return cmd
}

func newReportBurdenCommand(a *app) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "burden",
		Short: "Indirect taxes as a share of living standard, per decile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("year") {
				year = a.cfg.Simulation.Year
			}
			f, err := a.loadSimulation(year)
			if err != nil {
				return err
			}
			t, err := report.Burden(f)
			if err != nil {
				return err
			}
			t.Title = fmt.Sprintf("%s (%d)", t.Title, year)
			return a.emitTable(cmd, t, "burden_"+strconv.Itoa(year)+".csv", true)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "simulated year (default from config)")
	return cmd
}

func newReportEffortCommand(a *app) *cobra.Command {
	var years []int

	cmd := &cobra.Command{
		Use:   "effort",
		Short: "Indirect taxes over disposable income, per decile and year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("years") {
				years = a.cfg.Simulation.ReportYears
			}
			byYear := make(map[int]*frame.Frame, len(years))
			for _, y := range years {
				f, err := a.loadSimulation(y)
				if err != nil {
					return err
				}
				byYear[y] = f
			}
			t, err := report.EffortRate(byYear)
			if err != nil {
				return err
			}
			return a.emitTable(cmd, t, "effort.csv", true)
		},
	}
	cmd.Flags().IntSliceVar(&years, "years", nil, "simulated years (default from config)")
	return cmd
}

func newReportEngelCommand(a *app) *cobra.Command {
	var source, income string
	var columns []string
	var bins int
	var minIncome float64

	cmd := &cobra.Command{
		Use:   "engel",
		Short: "Mean expenditures by income bin, to draw Engel curves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			f, err := survey.DefaultRegistry().Load(source, survey.Path(a.dataDir(), source))
			if err != nil {
				return err
			}
			t, err := report.EngelBins(f, income, columns, minIncome, bins)
			if err != nil {
				return err
			}
			return a.emitTable(cmd, t, "engel_"+source+".csv", false)
		},
	}
	cmd.Flags().StringVar(&source, "source", "bdf", "survey source")
	cmd.Flags().StringVar(&income, "income", "rev_disponible", "income column used to rank households")
	cmd.Flags().StringSliceVar(&columns, "columns", []string{"depenses_carburants"}, "expenditure columns")
	cmd.Flags().IntVar(&bins, "bins", 50, "number of income bins")
	cmd.Flags().Float64Var(&minIncome, "min-income", 1000, "households at or below this income are dropped")
	return cmd
}

// loadSimulation reads the reference output of a previous simulate run.
func (a *app) loadSimulation(year int) (*frame.Frame, error) {
	path := SimulationFile(a.outputDir(), year, "")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no simulation for %d (run `incidence simulate --year %d` first)", year, year)
	}
	return frame.Load(path, survey.ColumnIdent)
}

// emitTable prints t, saves it under output/report and records it.
func (a *app) emitTable(cmd *cobra.Command, t *report.Table, name string, percent bool) error {
	bars, _ := cmd.Flags().GetBool("bars")
	if bars {
		fmt.Println(report.RenderBars(t, barWidth, percent))
	} else {
		fmt.Println(report.RenderTable(t, percent))
	}

	path := filepath.Join(a.outputDir(), "report", name)
	if err := report.Save(path, t); err != nil {
		return err
	}
	return a.record(cmd.CommandPath(), path, len(t.Rows), "")
}
