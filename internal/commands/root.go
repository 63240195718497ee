package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/incidence-dev/incidence/internal/buildinfo"
	"github.com/incidence-dev/incidence/internal/categories"
	"github.com/incidence-dev/incidence/internal/config"
	"github.com/incidence-dev/incidence/internal/elasticity"
	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/legislation"
	"github.com/incidence-dev/incidence/internal/logging"
	"github.com/incidence-dev/incidence/internal/manifest"
	"github.com/incidence-dev/incidence/internal/model"
	"github.com/incidence-dev/incidence/internal/survey"
)

// app carries the state shared by every subcommand.
type app struct {
	projectDir string
	verbose    bool
	cfg        *config.Config
	logger     *zap.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:     "incidence",
		Short:   "Indirect tax incidence on French household surveys",
		Version: buildinfo.Describe(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.projectDir, "project", "C", ".", "project directory")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCategoriesCommand(a))
	rootCmd.AddCommand(newSimulateCommand(a))
	rootCmd.AddCommand(newReportCommand(a))
	rootCmd.AddCommand(newMatchCommand(a))
	rootCmd.AddCommand(newElasticitiesCommand(a))
	rootCmd.AddCommand(newRunsCommand(a))

	return rootCmd
}

// setup loads the project configuration when one exists and builds the
// logger from it.
func (a *app) setup() error {
	abs, err := filepath.Abs(a.projectDir)
	if err != nil {
		return fmt.Errorf("resolving project: %w", err)
	}
	a.projectDir = abs

	level := ""
	if _, err := os.Stat(filepath.Join(abs, config.FileName)); err == nil {
		cfg, err := config.LoadProject(abs)
		if err != nil {
			return err
		}
		a.cfg = cfg
		level = cfg.Logging.Level
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking project: %w", err)
	}

	logger, err := logging.New(level, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) requireConfig() error {
	if a.cfg == nil {
		return fmt.Errorf("no %s in %s (run `incidence init` first)", config.FileName, a.projectDir)
	}
	return nil
}

func (a *app) path(p string) string {
	return config.Resolve(a.projectDir, p)
}

func (a *app) dataDir() string   { return a.path(a.cfg.Paths.DataDir) }
func (a *app) outputDir() string { return a.path(a.cfg.Paths.OutputDir) }

func (a *app) loadParams() (*legislation.Tree, error) {
	return legislation.Load(a.path(a.cfg.Paths.Legislation))
}

func (a *app) loadTable() ([]model.CategoryAssignment, error) {
	svc, err := categories.Load(a.path(a.cfg.Paths.Categories))
	if err != nil {
		return nil, err
	}
	return svc.All(), nil
}

// loadSurvey reads the household survey of source and joins the configured
// elasticities onto it.
func (a *app) loadSurvey(source string) (*frame.Frame, error) {
	f, err := survey.DefaultRegistry().Load(source, survey.Path(a.dataDir(), source))
	if err != nil {
		return nil, err
	}
	if a.cfg.Paths.Elasticities == "" {
		return f, nil
	}
	rows, err := elasticity.LoadHouseholds(a.path(a.cfg.Paths.Elasticities))
	if err != nil {
		return nil, err
	}
	matched, err := elasticity.Attach(f, rows)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("elasticities attached",
		zap.Int("matched", matched),
		zap.Int("households", f.Len()),
	)
	return f, nil
}

func (a *app) record(command, path string, rows int, runID string) error {
	if err := manifest.Record(a.outputDir(), command, path, rows, runID); err != nil {
		return err
	}
	a.logger.Debug("output written", zap.String("command", command), zap.String("path", path))
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return nil
}
