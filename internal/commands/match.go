package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/report"
	"github.com/incidence-dev/incidence/internal/survey"
)

func newMatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Prepare and check statistical matching between surveys",
	}
	cmd.AddCommand(newMatchSourcesCommand(a))
	cmd.AddCommand(newMatchCompareCommand(a))
	cmd.AddCommand(newMatchPrepareCommand(a))
	cmd.AddCommand(newMatchGroupsCommand(a))
	return cmd
}

func newMatchSourcesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the survey files found in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			files, err := survey.DefaultRegistry().Scan(a.dataDir())
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Printf("No survey files in %s\n", a.dataDir())
				return nil
			}
			for _, f := range files {
				fmt.Printf("%-5s %10d  %s\n", f.Source, f.Size, f.Name)
			}
			return nil
		},
	}
}

func newMatchCompareCommand(a *app) *cobra.Command {
	var left, right string
	var weighted bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the distributions of common variables in two surveys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			frames, err := a.loadSources(left, right)
			if err != nil {
				return err
			}
			hs := survey.Histograms()
			if weighted {
				hs = survey.Weighted(hs)
			}
			comps, err := survey.CompareAll(frames[left], frames[right],
				strings.ToUpper(left), strings.ToUpper(right), hs)
			if err != nil {
				return err
			}
			if len(comps) == 0 {
				fmt.Println("No common variables to compare")
				return nil
			}
			for _, c := range comps {
				t := comparisonTable(c)
				fmt.Println(report.RenderTable(t, false))
				path := filepath.Join(a.outputDir(), "matching", "compare_"+left+"_"+right, c.Column+".csv")
				if err := report.Save(path, t); err != nil {
					return err
				}
				if err := a.record("match compare", path, len(t.Rows), ""); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&left, "left", "bdf", "reference survey")
	cmd.Flags().StringVar(&right, "right", "enl", "survey compared to the reference")
	cmd.Flags().BoolVar(&weighted, "weighted", false, "weight quantiles by household weight")
	return cmd
}

func comparisonTable(c survey.Comparison) *report.Table {
	t := &report.Table{
		Title:    c.Column,
		RowLabel: "modalite",
		Rows:     c.Keys,
		Columns:  []string{c.LeftLabel, c.RightLabel},
		Values:   make([][]float64, len(c.Keys)),
	}
	for i := range c.Keys {
		t.Values[i] = []float64{c.Left[i], c.Right[i]}
	}
	return t
}

func newMatchPrepareCommand(a *app) *cobra.Command {
	var flow string
	var sources []string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Write the cleaned survey files used by the matching step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			frames, err := a.loadSources(sources...)
			if err != nil {
				return err
			}
			paths, err := survey.PrepareMatching(a.outputDir(), flow, frames)
			if err != nil {
				return err
			}
			rows := make(map[string]int, len(frames))
			for src, f := range frames {
				rows[survey.MatchingFile(a.outputDir(), flow, src)] = f.Len()
			}
			for _, p := range paths {
				fmt.Println(p)
				if err := a.record("match prepare", p, rows[p], ""); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flow, "flow", "enl", "matching flow, named after the donor survey")
	cmd.Flags().StringSliceVar(&sources, "sources", []string{"bdf", "enl"}, "surveys to prepare")
	return cmd
}

func newMatchGroupsCommand(a *app) *cobra.Command {
	var matched, group string
	var columns []string

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Weighted means of matched variables by group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			levels, err := survey.GroupLevels(group)
			if err != nil {
				return err
			}
			f, err := frame.Load(a.path(matched), survey.ColumnIdent)
			if err != nil {
				return err
			}
			means, err := survey.GroupedWeightedMeans(f, group, levels, columns, survey.ColumnWeight)
			if err != nil {
				return err
			}
			t, err := report.FromFrame("Moyennes par "+group, group, means)
			if err != nil {
				return err
			}
			return a.emitTable(cmd, t, "groups_"+group+".csv", false)
		},
	}
	cmd.Flags().StringVar(&matched, "matched", "", "matched survey file (required)")
	_ = cmd.MarkFlagRequired("matched")
	cmd.Flags().StringVar(&group, "group", "niveau_vie_decile", "grouping column")
	cmd.Flags().StringSliceVar(&columns, "columns", []string{"depenses_carburants"}, "columns to average")
	cmd.Flags().Bool("bars", false, "draw bar charts instead of tables")
	return cmd
}

func (a *app) loadSources(sources ...string) (map[string]*frame.Frame, error) {
	reg := survey.DefaultRegistry()
	frames := make(map[string]*frame.Frame, len(sources))
	for _, src := range sources {
		f, err := reg.Load(src, survey.Path(a.dataDir(), src))
		if err != nil {
			return nil, err
		}
		frames[src] = f
	}
	return frames, nil
}
