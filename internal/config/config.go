// Package config loads featsynth run settings from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Warehouse drivers.
const (
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
	DriverNone   = "none"
)

// Warehouse selects the database the merged tables are written to.
type Warehouse struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Config holds the settings for a run.
type Config struct {
	DataDir   string    `yaml:"data_dir"`   // directory holding the source CSVs
	ExportDir string    `yaml:"export_dir"` // directory for *_transformed.csv; empty disables export
	Plan      string    `yaml:"plan"`       // CUE plan file; empty means the embedded plan
	LogLevel  string    `yaml:"log_level"`  // debug, info, warn, error
	Warehouse Warehouse `yaml:"warehouse"`
}

// Default returns the settings used when no file or variable overrides them.
func Default() *Config {
	return &Config{
		DataDir:   "Ecommerce",
		ExportDir: "Data",
		LogLevel:  "info",
		Warehouse: Warehouse{Driver: DriverSQLite, DSN: "warehouse.db"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads YAML over the defaults. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from FEATSYNTH_* environment variables that are
// set and non-empty.
func (c *Config) ApplyEnv() {
	envs := []struct {
		name string
		dst  *string
	}{
		{"FEATSYNTH_DATA_DIR", &c.DataDir},
		{"FEATSYNTH_EXPORT_DIR", &c.ExportDir},
		{"FEATSYNTH_PLAN", &c.Plan},
		{"FEATSYNTH_LOG_LEVEL", &c.LogLevel},
		{"FEATSYNTH_WAREHOUSE_DRIVER", &c.Warehouse.Driver},
		{"FEATSYNTH_WAREHOUSE_DSN", &c.Warehouse.DSN},
	}
	for _, e := range envs {
		if v := os.Getenv(e.name); v != "" {
			*e.dst = v
		}
	}
}

// Validate rejects unknown warehouse drivers and log levels.
func (c *Config) Validate() error {
	switch c.Warehouse.Driver {
	case DriverSQLite, DriverDuckDB:
	case DriverNone, "":
		c.Warehouse.Driver = DriverNone
	default:
		return fmt.Errorf("config: unknown warehouse driver %q (want sqlite, duckdb, or none)", c.Warehouse.Driver)
	}
	if c.Warehouse.Driver == DriverSQLite && c.Warehouse.DSN == "" {
		return errors.New("config: sqlite warehouse needs a dsn")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// SlogLevel maps LogLevel to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
