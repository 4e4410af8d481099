// Package config loads the YAML configuration for the backsim binary.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrNoDataSource = errors.New("either storage.database_url or storage.csv_dir must be set")

// Config is the top-level configuration.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Backtest BacktestConfig `yaml:"backtest"`
	Optimize OptimizeConfig `yaml:"optimize"`
	Logging  Logging        `yaml:"logging"`
	Report   ReportConfig   `yaml:"report"`
}

// Storage selects the price data source. DatabaseURL wins when both are set.
type Storage struct {
	DatabaseURL string `yaml:"database_url"`
	CSVDir      string `yaml:"csv_dir"`
}

// BacktestConfig describes one simulation run.
type BacktestConfig struct {
	Strategy    string   `yaml:"strategy"`
	Symbols     []string `yaml:"symbols"`
	InitialCash float64  `yaml:"initial_cash"`
}

// OptimizeConfig controls the parameter sweep. Ranges may be empty, in
// which case candidates are extracted from the strategy source.
type OptimizeConfig struct {
	Metric  string               `yaml:"metric"`
	Workers int                  `yaml:"workers"`
	Ranges  map[string][]float64 `yaml:"ranges"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReportConfig controls result output.
type ReportConfig struct {
	TradesCSV string `yaml:"trades_csv"`
}

// Load reads the YAML configuration file at the given path, parses it, and
// applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKSIM_DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := os.Getenv("BACKSIM_CSV_DIR"); v != "" {
		cfg.Storage.CSVDir = v
	}
	if v := os.Getenv("BACKSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Backtest.InitialCash == 0 {
		cfg.Backtest.InitialCash = 10000
	}
	if cfg.Optimize.Metric == "" {
		cfg.Optimize.Metric = "sharpe_ratio"
	}
	if cfg.Optimize.Workers == 0 {
		cfg.Optimize.Workers = 4
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Storage.DatabaseURL == "" && c.Storage.CSVDir == "" {
		return ErrNoDataSource
	}
	if c.Backtest.Strategy == "" {
		return errors.New("backtest.strategy is required")
	}
	if len(c.Backtest.Symbols) == 0 {
		return errors.New("backtest.symbols is required")
	}
	if c.Backtest.InitialCash <= 0 {
		return fmt.Errorf("backtest.initial_cash must be positive, got %g", c.Backtest.InitialCash)
	}
	return nil
}
