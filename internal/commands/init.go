package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/incidence-dev/incidence/internal/categories"
	"github.com/incidence-dev/incidence/internal/config"
	"github.com/incidence-dev/incidence/internal/gitops"
	"github.com/incidence-dev/incidence/internal/legislation"
)

func newInitCommand() *cobra.Command {
	var name string
	var git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new incidence study",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, name, git)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "study name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().BoolVar(&git, "git", false, "version the study inputs in a git repository")

	return cmd
}

func runInit(dir, name string, git bool) error {
	cfg := config.Default(name)

	dirs := []string{
		cfg.Paths.DataDir,
		filepath.Join(cfg.Paths.DataDir, "quaids"),
		cfg.Paths.OutputDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, cfg.Paths.Legislation), legislation.DefaultYAML(), 0o644); err != nil {
		return fmt.Errorf("writing legislation: %w", err)
	}

	svc := categories.NewService(categories.DefaultTable())
	if err := svc.Save(filepath.Join(dir, cfg.Paths.Categories)); err != nil {
		return fmt.Errorf("writing category table: %w", err)
	}

	// Surveys and outputs stay out of version control.
	gitignore := fmt.Sprintf("%s/\n%s/\n%s\n.env\n", cfg.Paths.DataDir, cfg.Paths.OutputDir, cfg.Paths.Database)
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if !git {
		fmt.Printf("Initialized incidence project at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return err
	}
	hash, err := gitops.Snapshot(dir, "init: "+name, gitops.DefaultIdentity)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	fmt.Printf("Initialized incidence project at %s (%s)\n", dir, hash)
	return nil
}
