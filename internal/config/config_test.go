package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_PASSWORD", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.RateLimit.Backend != RateLimitBackendMemory {
		t.Fatalf("expected memory rate limit backend, got %s", cfg.RateLimit.Backend)
	}
	if cfg.Validation.StoreTimeout != 5*time.Second {
		t.Fatalf("expected 5s store timeout, got %s", cfg.Validation.StoreTimeout)
	}
	if cfg.Database.Configured() {
		t.Fatalf("expected database to be unconfigured without env")
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("expected redis to be disabled by default")
	}
}

func TestLoadConfigRespectsEnv(t *testing.T) {
	viper.Reset()
	t.Setenv("DATABASE_URL", "postgres://keys@db.internal:5432/keys?sslmode=disable")
	t.Setenv("DATABASE_PASSWORD", "s3cret")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if !cfg.Database.Configured() {
		t.Fatalf("expected database to be configured")
	}
	if cfg.Database.Password != "s3cret" {
		t.Fatalf("expected password override, got %q", cfg.Database.Password)
	}
	if !cfg.Redis.Enabled() {
		t.Fatalf("expected redis to be enabled")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected log level override, got %s", cfg.Log.Level)
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	viper.Reset()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_PASSWORD", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("server:\n  port: \"9090\"\nrateLimit:\n  backend: redis\n  maxEntries: 50\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from file, got %s", cfg.Server.Port)
	}
	if cfg.RateLimit.Backend != RateLimitBackendRedis || cfg.RateLimit.MaxEntries != 50 {
		t.Fatalf("unexpected rate limit config: %+v", cfg.RateLimit)
	}
}

func TestDatabaseConfigConfigured(t *testing.T) {
	cases := []struct {
		name string
		cfg  DatabaseConfig
		want bool
	}{
		{name: "both set", cfg: DatabaseConfig{URL: "postgres://db:5432/keys", Password: "x"}, want: true},
		{name: "missing password", cfg: DatabaseConfig{URL: "postgres://db:5432/keys"}, want: false},
		{name: "missing url", cfg: DatabaseConfig{Password: "x"}, want: false},
		{name: "malformed url", cfg: DatabaseConfig{URL: "not a url", Password: "x"}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.Configured(); got != tc.want {
				t.Fatalf("Configured() = %v, want %v", got, tc.want)
			}
		})
	}
}
