package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("VITALS_TEST_DSN", "postgres://vitals:secret@db:5432/vitals")

	dir := t.TempDir()
	path := filepath.Join(dir, "vitals.yaml")
	raw := `
server:
  http_port: 9090
postgres:
  dsn: ${VITALS_TEST_DSN}
rate_limit:
  ingest_limit: 50
  ingest_window: 2m
  trusted_ips:
    - 10.0.0.1
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Postgres.DSN != "postgres://vitals:secret@db:5432/vitals" {
		t.Fatalf("env not expanded: %q", cfg.Postgres.DSN)
	}
	if cfg.Postgres.MaxConns != 10 {
		t.Fatalf("expected default max_conns 10, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.RateLimit.IngestLimit != 50 {
		t.Fatalf("expected ingest_limit 50, got %d", cfg.RateLimit.IngestLimit)
	}
	if got := cfg.RateLimit.IngestWindowDuration(); got != 2*time.Minute {
		t.Fatalf("expected 2m window, got %v", got)
	}
	if cfg.RateLimit.MonitoringLimit != 30 {
		t.Fatalf("expected default monitoring_limit 30, got %d", cfg.RateLimit.MonitoringLimit)
	}
	if len(cfg.RateLimit.TrustedIPs) != 1 || cfg.RateLimit.TrustedIPs[0] != "10.0.0.1" {
		t.Fatalf("trusted ips not parsed: %v", cfg.RateLimit.TrustedIPs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestWindowDurationFallback(t *testing.T) {
	c := RateLimitConfig{IngestWindow: "not-a-duration", MonitoringWindow: "-5s"}
	if got := c.IngestWindowDuration(); got != 5*time.Minute {
		t.Fatalf("expected 5m fallback, got %v", got)
	}
	if got := c.MonitoringWindowDuration(); got != time.Minute {
		t.Fatalf("expected 1m fallback, got %v", got)
	}
}
