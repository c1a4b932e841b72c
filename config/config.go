package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xtxerr/stratus/internal/calendar"
	"github.com/xtxerr/stratus/internal/errors"
	"github.com/xtxerr/stratus/internal/jobs"
)

// Config is the complete daemon configuration.
type Config struct {
	// Store configures the target array store.
	Store StoreConfig `yaml:"store"`

	// Raw locates the raw shard archive.
	Raw RawConfig `yaml:"raw"`

	// Ingest configures the ingestion driver.
	Ingest IngestConfig `yaml:"ingest"`

	// Update configures the convergence loop and policy window.
	Update UpdateConfig `yaml:"update"`

	// Jobs configures the external acquisition jobs.
	Jobs JobsConfig `yaml:"jobs"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig configures the target array store.
type StoreConfig struct {
	// Path is the store root directory.
	Path string `yaml:"path"`

	// ChunkLen is the number of timestamps per chunk file.
	ChunkLen int `yaml:"chunk_len"`

	// SampleSize is the number of values per timestamp, used when the
	// daemon creates a fresh store. Ignored for an existing store.
	SampleSize int `yaml:"sample_size"`
}

// RawConfig locates raw shards and configures their transfer.
type RawConfig struct {
	// DailyRoot is the base URL of per-day shards.
	DailyRoot string `yaml:"daily_root"`

	// MonthlyRoot is the base URL of month shards.
	MonthlyRoot string `yaml:"monthly_root"`

	// TempDir holds materialized shards; empty means the OS default.
	TempDir string `yaml:"temp_dir"`

	// CopyTimeout bounds each remote copy.
	CopyTimeout Duration `yaml:"copy_timeout"`
}

// IngestConfig configures the ingestion driver.
type IngestConfig struct {
	// Epoch is the reference date, YYYY-MM-DD.
	Epoch string `yaml:"epoch"`

	// Groups are the catalog groups to ingest. Empty means every group in
	// the catalog.
	Groups []string `yaml:"groups"`

	// Workers bounds concurrent shard units.
	Workers int `yaml:"workers"`

	// WriteTimeout bounds each per-variable store write.
	WriteTimeout Duration `yaml:"write_timeout"`
}

// UpdateConfig configures the convergence loop.
type UpdateConfig struct {
	// WindowMonthsBack selects the n-th previous month as the update
	// window.
	WindowMonthsBack int `yaml:"window_months_back"`

	// MaxCycles bounds ingest/verify/reacquire cycles.
	MaxCycles int `yaml:"max_cycles"`

	// MaxWallClock bounds the whole loop.
	MaxWallClock Duration `yaml:"max_wall_clock"`

	// InitialBackoff is the wait after the first incomplete cycle.
	InitialBackoff Duration `yaml:"initial_backoff"`

	// MaxBackoff caps the wait between cycles.
	MaxBackoff Duration `yaml:"max_backoff"`
}

// JobsConfig configures the external acquisition jobs.
type JobsConfig struct {
	// Download is the raw data download job template.
	Download jobs.Template `yaml:"download"`

	// Splits are the per-dataset splitting job templates.
	Splits []jobs.Template `yaml:"splits"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// JSON selects JSON output instead of text.
	JSON bool `yaml:"json"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			ChunkLen: DefaultChunkLen,
		},
		Raw: RawConfig{
			CopyTimeout: Duration(DefaultCopyTimeout),
		},
		Ingest: IngestConfig{
			Epoch:        DefaultEpoch,
			Workers:      DefaultWorkers,
			WriteTimeout: Duration(DefaultWriteTimeout),
		},
		Update: UpdateConfig{
			WindowMonthsBack: DefaultWindowMonthsBack,
			MaxCycles:        DefaultMaxCycles,
			MaxWallClock:     Duration(DefaultMaxWallClock),
			InitialBackoff:   Duration(DefaultInitialBackoff),
			MaxBackoff:       Duration(DefaultMaxBackoff),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. Unknown keys are an error.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EpochDate parses the configured epoch.
func (c *Config) EpochDate() (calendar.Date, error) {
	return calendar.Parse(c.Ingest.Epoch)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var verrs errors.ValidationErrors

	if c.Store.Path == "" {
		verrs.AddField("store.path", "required")
	}
	if c.Store.ChunkLen <= 0 {
		verrs.AddField("store.chunk_len", "must be positive")
	}
	if c.Store.SampleSize < 0 {
		verrs.AddField("store.sample_size", "must not be negative")
	}
	if c.Raw.DailyRoot == "" && c.Raw.MonthlyRoot == "" {
		verrs.AddField("raw", "daily_root or monthly_root is required")
	}
	if c.Raw.CopyTimeout < 0 {
		verrs.AddField("raw.copy_timeout", "must not be negative")
	}
	if _, err := c.EpochDate(); err != nil {
		verrs.AddField("ingest.epoch", err.Error())
	}
	if c.Ingest.Workers < 0 {
		verrs.AddField("ingest.workers", "must not be negative")
	}
	if c.Ingest.WriteTimeout < 0 {
		verrs.AddField("ingest.write_timeout", "must not be negative")
	}
	if c.Update.WindowMonthsBack <= 0 {
		verrs.AddField("update.window_months_back", "must be positive")
	}
	if c.Update.MaxCycles <= 0 {
		verrs.AddField("update.max_cycles", "must be positive")
	}
	if c.Update.MaxWallClock < 0 {
		verrs.AddField("update.max_wall_clock", "must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		verrs.AddField("logging.level", "must be debug, info, warn, or error")
	}

	return verrs.Err()
}
