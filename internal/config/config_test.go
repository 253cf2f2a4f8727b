package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DBMaxConns != 8 {
		t.Fatalf("DBMaxConns = %d, want 8", cfg.DBMaxConns)
	}
	if cfg.ReconcileInterval != 15*time.Minute {
		t.Fatalf("ReconcileInterval = %s, want 15m", cfg.ReconcileInterval)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "32")
	t.Setenv("RECONCILE_INTERVAL_SECONDS", "60")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := FromEnv()
	if cfg.DBMaxConns != 32 {
		t.Fatalf("DBMaxConns = %d, want 32", cfg.DBMaxConns)
	}
	if cfg.ReconcileInterval != time.Minute {
		t.Fatalf("ReconcileInterval = %s, want 1m", cfg.ReconcileInterval)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "zero")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "soon")

	cfg := FromEnv()
	if cfg.DBMaxConns != 8 {
		t.Fatalf("unparseable DB_MAX_CONNS must fall back to 8, got %d", cfg.DBMaxConns)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unparseable timeout must fall back to 10s, got %s", cfg.ShutdownTimeout)
	}
}
