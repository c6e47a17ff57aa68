package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abgleich.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
[engine]
dsn = "postgres://taurus@db.example.net/taurus"
table = "metric_prod"
connect_timeout = "5s"

[mirror]
addr = "cache.example.net:6379"
db = 2
key_prefix = "taurus:metric:"
scan_count = 250
scan_rate = 500.0

[logging]
level = "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine.DSN != "postgres://taurus@db.example.net/taurus" {
		t.Errorf("unexpected engine dsn %q", cfg.Engine.DSN)
	}
	if cfg.Engine.Table != "metric_prod" {
		t.Errorf("unexpected engine table %q", cfg.Engine.Table)
	}
	if cfg.Engine.ConnectTimeout.Std() != 5*time.Second {
		t.Errorf("unexpected connect timeout %v", cfg.Engine.ConnectTimeout.Std())
	}
	if cfg.Mirror.Addr != "cache.example.net:6379" {
		t.Errorf("unexpected mirror addr %q", cfg.Mirror.Addr)
	}
	if cfg.Mirror.DB != 2 {
		t.Errorf("unexpected mirror db %d", cfg.Mirror.DB)
	}
	if cfg.Mirror.KeyPrefix != "taurus:metric:" {
		t.Errorf("unexpected key prefix %q", cfg.Mirror.KeyPrefix)
	}
	if cfg.Mirror.ScanCount != 250 {
		t.Errorf("unexpected scan count %d", cfg.Mirror.ScanCount)
	}
	if cfg.Mirror.ScanRate != 500.0 {
		t.Errorf("unexpected scan rate %f", cfg.Mirror.ScanRate)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("unexpected log level %q", cfg.Logging.Level)
	}
}

func TestLoad_DefaultsApply(t *testing.T) {
	path := writeConfig(t, `
[engine]
dsn = "host=localhost user=taurus dbname=taurus"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine.Table != "metric" {
		t.Errorf("expected default table, got %q", cfg.Engine.Table)
	}
	if cfg.Mirror.Addr != "localhost:6379" {
		t.Errorf("expected default mirror addr, got %q", cfg.Mirror.Addr)
	}
	if cfg.Mirror.KeyPrefix != "metric:" {
		t.Errorf("expected default key prefix, got %q", cfg.Mirror.KeyPrefix)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Logging.Level)
	}
}

func TestLoad_MissingDSN(t *testing.T) {
	path := writeConfig(t, `
[mirror]
addr = "localhost:6379"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for missing engine.dsn")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/abgleich.toml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
[engine]
dsn = "host=localhost"
connect_timeout = "soon"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for unparseable duration")
	}
}
