package commands

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/incidence-dev/incidence/internal/elasticity"
	"github.com/incidence-dev/incidence/internal/report"
)

func newElasticitiesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elasticities",
		Short: "Work with demand-system elasticity estimates",
	}
	cmd.AddCommand(newElasticitiesAggregateCommand(a))
	return cmd
}

func newElasticitiesAggregateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate [files...]",
		Short: "Population elasticities from household estimation files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			files := args
			if len(files) == 0 {
				var err error
				files, err = filepath.Glob(filepath.Join(a.dataDir(), "quaids", "*.csv"))
				if err != nil {
					return fmt.Errorf("listing estimations: %w", err)
				}
			}
			if len(files) == 0 {
				return fmt.Errorf("no estimation files in %s", filepath.Join(a.dataDir(), "quaids"))
			}
			sort.Strings(files)

			results, err := aggregateFiles(files)
			if err != nil {
				return err
			}
			return a.emitTable(cmd, elasticityTable(results), "elasticities.csv", false)
		},
	}
	cmd.Flags().Bool("bars", false, "draw bar charts instead of tables")
	return cmd
}

// aggregateFiles reads and aggregates every estimation file concurrently.
// Results keep the order of files.
func aggregateFiles(files []string) ([]elasticity.Result, error) {
	results := make([]elasticity.Result, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			rows, err := elasticity.LoadEstimates(path)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			res, err := elasticity.Aggregate(name, rows)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func elasticityTable(results []elasticity.Result) *report.Table {
	t := &report.Table{Title: "Elasticités agrégées", RowLabel: "estimation"}
	for g := 1; g <= elasticity.EstimatedGoods; g++ {
		t.Columns = append(t.Columns,
			fmt.Sprintf("mu_%d", g), fmt.Sprintf("mu_%d_inf", g), fmt.Sprintf("mu_%d_sup", g))
	}
	for g := 1; g <= elasticity.EstimatedGoods; g++ {
		t.Columns = append(t.Columns, fmt.Sprintf("ce_%d_%d", g, g))
	}

	for _, r := range results {
		t.Rows = append(t.Rows, r.Name)
		row := make([]float64, 0, len(t.Columns))
		for _, b := range r.Income {
			row = append(row, b.Value, b.Lower, b.Upper)
		}
		row = append(row, r.Uncompensated[:]...)
		t.Values = append(t.Values, row)
	}
	return t
}
