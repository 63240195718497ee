package commands

import (
	"fmt"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/incidence-dev/incidence/internal/manifest"
	"github.com/incidence-dev/incidence/internal/report"
	"github.com/incidence-dev/incidence/internal/store"
)

func newRunsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse recorded simulation runs",
	}
	cmd.AddCommand(newRunsListCommand(a))
	cmd.AddCommand(newRunsShowCommand(a))
	return cmd
}

func newRunsListCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			db, err := store.Open(a.path(a.cfg.Paths.Database))
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := store.NewRunStore(db).List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No recorded runs")
				return nil
			}
			for _, r := range runs {
				reform := r.ReformKey
				if reform == "" {
					reform = "-"
				}
				fmt.Printf("%s  %d  %-28s %6d  %s\n",
					r.ID, r.Year, reform, r.Households, r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	return cmd
}

func newRunsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the decile results and output files of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			db, err := store.Open(a.path(a.cfg.Paths.Database))
			if err != nil {
				return err
			}
			defer db.Close()

			runs := store.NewRunStore(db)
			run, err := runs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}
			rows, err := runs.Deciles(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			t := &report.Table{
				Title:    fmt.Sprintf("Run %s (%d %s)", run.ID, run.Year, run.ReformKey),
				RowLabel: report.ColumnDecile,
			}
			seen := make(map[string]bool)
			for _, r := range rows {
				for name := range r.Values {
					if !seen[name] {
						seen[name] = true
						t.Columns = append(t.Columns, name)
					}
				}
			}
			sort.Strings(t.Columns)
			for _, r := range rows {
				t.Rows = append(t.Rows, fmt.Sprint(r.Decile))
				values := make([]float64, len(t.Columns))
				for j, name := range t.Columns {
					v, ok := r.Values[name]
					if !ok {
						v = math.NaN()
					}
					values[j] = v
				}
				t.Values = append(t.Values, values)
			}
			fmt.Println(report.RenderTable(t, false))

			files, err := manifest.ForRun(a.outputDir(), run.ID)
			if err != nil {
				return err
			}
			for _, e := range files {
				fmt.Printf("%s  %6d  %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Rows, e.Path)
			}
			return nil
		},
	}
}
