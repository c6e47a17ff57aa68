// Package config loads the tool configuration from a TOML file.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level tool configuration.
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Mirror  MirrorConfig  `toml:"mirror"`
	Logging LoggingConfig `toml:"logging"`
}

// EngineConfig holds the relational repository connection settings.
type EngineConfig struct {
	// DSN is a lib/pq connection string or postgres:// URL.
	DSN string `toml:"dsn"`

	// Table is the metric table name.
	Table string `toml:"table"`

	// ConnectTimeout bounds the initial connection probe.
	ConnectTimeout duration `toml:"connect_timeout"`
}

// MirrorConfig holds the mirror document store settings.
type MirrorConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// KeyPrefix is prepended to metric uids to form hash keys.
	KeyPrefix string `toml:"key_prefix"`

	// ScanCount is the COUNT hint per SCAN batch.
	ScanCount int64 `toml:"scan_count"`

	// ScanRate caps hash reads per second during a full scan. Zero
	// disables throttling.
	ScanRate float64 `toml:"scan_rate"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// duration lets TOML values like "5s" decode into a time.Duration.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a Config with sensible defaults. Load applies these
// before decoding, so a config file only needs to state what differs.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Table:          "metric",
			ConnectTimeout: duration(10 * time.Second),
		},
		Mirror: MirrorConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "metric:",
			ScanCount: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings a run cannot proceed without.
func (c *Config) Validate() error {
	if c.Engine.DSN == "" {
		return fmt.Errorf("config: engine.dsn is required")
	}
	if c.Engine.Table == "" {
		return fmt.Errorf("config: engine.table is required")
	}
	if c.Mirror.Addr == "" {
		return fmt.Errorf("config: mirror.addr is required")
	}
	if c.Mirror.KeyPrefix == "" {
		return fmt.Errorf("config: mirror.key_prefix is required")
	}
	return nil
}
