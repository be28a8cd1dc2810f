package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/creditsim/journal"
	"github.com/rustyeddy/creditsim/sim"
)

// Config represents the complete run configuration
type Config struct {
	Inputs     InputsConfig     `json:"inputs" yaml:"inputs"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	Report     ReportConfig     `json:"report" yaml:"report"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// InputsConfig names the rate calendar and loan template sources
type InputsConfig struct {
	RatesPath string `json:"rates_path" yaml:"rates_path"`
	LoansPath string `json:"loans_path" yaml:"loans_path"`
}

// SimulationConfig contains the engine parameters
type SimulationConfig struct {
	InitialTarget      float64 `json:"initial_target" yaml:"initial_target"`
	Seed               int64   `json:"seed" yaml:"seed"`
	ReinvestSeedOffset int64   `json:"reinvest_seed_offset" yaml:"reinvest_seed_offset"`
	YearDayCount       int     `json:"year_day_count" yaml:"year_day_count"`
	WeeksPerYear       int     `json:"weeks_per_year" yaml:"weeks_per_year"`
	MaxPackIterations  int     `json:"max_pack_iterations" yaml:"max_pack_iterations"`
	MaxWeeksToLog      int     `json:"max_weeks_to_log" yaml:"max_weeks_to_log"` // 0 = all, <0 = none
}

// Engine converts the section to engine settings.
func (s SimulationConfig) Engine() sim.Config {
	return sim.Config{
		InitialTarget:      s.InitialTarget,
		Seed:               s.Seed,
		ReinvestSeedOffset: s.ReinvestSeedOffset,
		YearDays:           s.YearDayCount,
		WeeksPerYear:       s.WeeksPerYear,
		MaxPackIterations:  s.MaxPackIterations,
		MaxWeeksToLog:      s.MaxWeeksToLog,
	}
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string        `json:"type" yaml:"type"` // "csv" or "sqlite"
	OutDir string        `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	DBPath string        `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	Files  journal.Files `json:"files,omitempty" yaml:"files,omitempty"`
}

// MetricsConfig controls the Prometheus textfile export
type MetricsConfig struct {
	TextfilePath string `json:"textfile_path,omitempty" yaml:"textfile_path,omitempty"`
}

// ReportConfig controls the Org-mode run report
type ReportConfig struct {
	OrgPath string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

type LogConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// LoadFromFile loads configuration from a file. Keys missing from the file
// keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Inputs.RatesPath == "" {
		return fmt.Errorf("inputs.rates_path is required")
	}
	if c.Inputs.LoansPath == "" {
		return fmt.Errorf("inputs.loans_path is required")
	}
	s := c.Simulation
	if s.InitialTarget < 0 {
		return fmt.Errorf("simulation.initial_target must not be negative")
	}
	if s.YearDayCount <= 0 {
		return fmt.Errorf("simulation.year_day_count must be positive")
	}
	if s.WeeksPerYear <= 0 {
		return fmt.Errorf("simulation.weeks_per_year must be positive")
	}
	if s.MaxPackIterations <= 0 {
		return fmt.Errorf("simulation.max_pack_iterations must be positive")
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && c.Journal.OutDir == "" {
		return fmt.Errorf("journal out_dir required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	eng := sim.DefaultConfig()
	return &Config{
		Inputs: InputsConfig{
			RatesPath: "./data/effr.csv",
			LoansPath: "./data/loans.csv",
		},
		Simulation: SimulationConfig{
			InitialTarget:      eng.InitialTarget,
			Seed:               eng.Seed,
			ReinvestSeedOffset: eng.ReinvestSeedOffset,
			YearDayCount:       eng.YearDays,
			WeeksPerYear:       eng.WeeksPerYear,
			MaxPackIterations:  eng.MaxPackIterations,
			MaxWeeksToLog:      30,
		},
		Journal: JournalConfig{
			Type:   "csv",
			OutDir: "./out",
			Files:  journal.DefaultFiles(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
