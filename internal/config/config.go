package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file name.
const FileName = "incidence.yaml"

// Config represents the top-level incidence.yaml configuration.
type Config struct {
	Project    ProjectConfig    `yaml:"project"`
	Paths      PathsConfig      `yaml:"paths"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ProjectConfig identifies the study.
type ProjectConfig struct {
	Name string `yaml:"name"`
}

// PathsConfig locates inputs and outputs. Relative paths resolve against the
// project root.
type PathsConfig struct {
	DataDir      string `yaml:"data_dir"`
	OutputDir    string `yaml:"output_dir"`
	Legislation  string `yaml:"legislation"`
	Categories   string `yaml:"categories"`
	Elasticities string `yaml:"elasticities,omitempty"`
	Database     string `yaml:"database"`
}

// SimulationConfig holds the defaults of the simulate and report commands.
type SimulationConfig struct {
	Year        int    `yaml:"year"`
	Reform      string `yaml:"reform,omitempty"`
	ReportYears []int  `yaml:"report_years"`
}

// LoggingConfig controls the log level.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn" or "error"
}

// Overrides are the environment variables that take precedence over the
// YAML file.
type Overrides struct {
	DataDir   string `env:"INCIDENCE_DATA_DIR"`
	OutputDir string `env:"INCIDENCE_OUTPUT_DIR"`
	LogLevel  string `env:"INCIDENCE_LOG_LEVEL"`
	DBPath    string `env:"INCIDENCE_DB_PATH"`
}

// Load reads an incidence.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadProject reads <root>/incidence.yaml, loads <root>/.env when present
// and applies environment overrides.
func LoadProject(root string) (*Config, error) {
	cfg, err := Load(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overwrites fields with the non-empty environment overrides.
func (c *Config) ApplyEnv() error {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parsing env: %w", err)
	}
	if o.DataDir != "" {
		c.Paths.DataDir = o.DataDir
	}
	if o.OutputDir != "" {
		c.Paths.OutputDir = o.OutputDir
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.DBPath != "" {
		c.Paths.Database = o.DBPath
	}
	return nil
}

// Resolve returns path joined to root unless it is absolute.
func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(projectName string) *Config {
	return &Config{
		Project: ProjectConfig{
			Name: projectName,
		},
		Paths: PathsConfig{
			DataDir:     "data",
			OutputDir:   "output",
			Legislation: "legislation.yaml",
			Categories:  "categories.csv",
			Database:    "incidence.db",
		},
		Simulation: SimulationConfig{
			Year:        2014,
			ReportYears: []int{2000, 2005, 2011},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
