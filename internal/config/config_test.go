package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_PORT", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg := Load()
	if cfg.Port != "8081" {
		t.Fatalf("expected port 8081, got %q", cfg.Port)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected no redis address, got %q", cfg.RedisAddr)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", cfg.RequestTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ENTRY_STATE_TTL", "90m")

	cfg := Load()
	if cfg.Port != "9000" || cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.EntryStateTTL != 90*time.Minute {
		t.Fatalf("expected 90m ttl, got %v", cfg.EntryStateTTL)
	}
}
