package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"FEATSYNTH_DATA_DIR", "FEATSYNTH_EXPORT_DIR", "FEATSYNTH_PLAN",
		"FEATSYNTH_LOG_LEVEL", "FEATSYNTH_WAREHOUSE_DRIVER", "FEATSYNTH_WAREHOUSE_DSN",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Ecommerce", cfg.DataDir)
	assert.Equal(t, "Data", cfg.ExportDir)
	assert.Empty(t, cfg.Plan)
	assert.Equal(t, Warehouse{Driver: DriverSQLite, DSN: "warehouse.db"}, cfg.Warehouse)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "featsynth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/ecommerce
log_level: debug
warehouse:
  driver: duckdb
  dsn: ""
`), 0o644))
	t.Setenv("FEATSYNTH_DATA_DIR", "/mnt/override")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/override", cfg.DataDir, "environment wins over file")
	assert.Equal(t, "Data", cfg.ExportDir, "unset keys keep defaults")
	assert.Equal(t, DriverDuckDB, cfg.Warehouse.Driver)
	assert.Empty(t, cfg.Warehouse.DSN, "empty duckdb dsn is in-memory")
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "open config")
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("data_dir: x\nsnowflake_account: acme\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snowflake_account")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEATSYNTH_WAREHOUSE_DRIVER", "none")
	t.Setenv("FEATSYNTH_PLAN", "plans/returns.cue")
	t.Setenv("FEATSYNTH_LOG_LEVEL", "warn")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, DriverNone, cfg.Warehouse.Driver)
	assert.Equal(t, "plans/returns.cue", cfg.Plan)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"none driver", func(c *Config) { c.Warehouse.Driver = DriverNone }, ""},
		{"empty driver means none", func(c *Config) { c.Warehouse.Driver = "" }, ""},
		{"snowflake", func(c *Config) { c.Warehouse.Driver = "snowflake" }, "unknown warehouse driver"},
		{"sqlite without dsn", func(c *Config) { c.Warehouse.DSN = "" }, "needs a dsn"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
