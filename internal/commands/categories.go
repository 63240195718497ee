package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/incidence-dev/incidence/internal/categories"
	"github.com/incidence-dev/incidence/internal/reform"
)

func newCategoriesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect the fiscal category table",
	}
	cmd.AddCommand(newCategoriesSegmentsCommand(a))
	cmd.AddCommand(newCategoriesValidateCommand(a))
	return cmd
}

func newCategoriesSegmentsCommand(a *app) *cobra.Command {
	var category, reformKey string
	var save bool

	cmd := &cobra.Command{
		Use:   "segments",
		Short: "List the year ranges over which each category is stable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			table, err := a.loadTable()
			if err != nil {
				return err
			}
			switch reformKey {
			case "":
			case reform.KeyAlimentation:
				table = reform.FoodTable(table)
			default:
				return fmt.Errorf("reform %q does not change the category table", reformKey)
			}

			var segs []categories.Segment
			if category != "" {
				segs, err = categories.Segments(table, category)
			} else {
				segs, err = categories.AllSegments(table)
			}
			if err != nil {
				return err
			}

			if err := categories.WriteSegments(os.Stdout, segs); err != nil {
				return err
			}
			if !save {
				return nil
			}
			name := "segments.csv"
			if reformKey != "" {
				name = "segments_" + reformKey + ".csv"
			}
			path := filepath.Join(a.outputDir(), "categories", name)
			if err := writeSegmentsFile(path, segs); err != nil {
				return err
			}
			return a.record("categories segments", path, len(segs), "")
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only this fiscal category")
	cmd.Flags().StringVar(&reformKey, "reform", "", "apply the category changes of a reform")
	cmd.Flags().BoolVar(&save, "save", false, "also write the segments to the output directory")
	return cmd
}

func writeSegmentsFile(path string, segs []categories.Segment) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := categories.WriteSegments(f, segs); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func newCategoriesValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the category table for overlaps and invalid ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			table, err := a.loadTable()
			if err != nil {
				return err
			}
			errs := categories.Validate(table)
			if len(errs) == 0 {
				fmt.Printf("%d assignments OK\n", len(table))
				return nil
			}
			for _, e := range errs {
				fmt.Println(e.Error())
			}
			return fmt.Errorf("%d problems in category table", len(errs))
		},
	}
}
