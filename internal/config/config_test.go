package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Driver != "bolt" {
		t.Errorf("Store.Driver = %q, want bolt", cfg.Store.Driver)
	}
	if cfg.Billing.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.Billing.TickInterval)
	}
	if cfg.Billing.Location.String() != "Asia/Jakarta" {
		t.Errorf("Location = %v", cfg.Billing.Location)
	}
	if cfg.Idempotency.TTL != 24*time.Hour {
		t.Errorf("Idempotency.TTL = %v", cfg.Idempotency.TTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "STORE_DRIVER=memory\nAPP_PORT=9000\nCORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_PORT", "9100")
	t.Setenv("EVENTS_DRIVER", "redis")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.Driver != "memory" {
		t.Errorf("Store.Driver = %q, want memory from file", cfg.Store.Driver)
	}
	if cfg.App.Port != "9100" {
		t.Errorf("App.Port = %q, want env override 9100", cfg.App.Port)
	}
	if !cfg.NeedsRedis() {
		t.Error("NeedsRedis() = false with redis events")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	if _, err := Load(filepath.Join(t.TempDir(), "none.env")); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}
