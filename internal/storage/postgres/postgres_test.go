package postgres

import (
	"testing"
	"time"

	"github.com/makkenzo/apikey-validator/internal/config"
)

func TestPoolConfigInjectsPasswordAndSizes(t *testing.T) {
	pc, err := poolConfig(&config.DatabaseConfig{
		URL:             "postgres://dandi@db.internal:5432/keys?sslmode=disable",
		Password:        "s3cret",
		MaxOpenConns:    8,
		MaxIdleConns:    20,
		ConnMaxLifetime: 3 * time.Minute,
	})
	if err != nil {
		t.Fatalf("pool config: %v", err)
	}

	if pc.ConnConfig.Password != "s3cret" {
		t.Fatalf("expected injected password, got %q", pc.ConnConfig.Password)
	}
	if pc.ConnConfig.Host != "db.internal" || pc.ConnConfig.Database != "keys" {
		t.Fatalf("unexpected target %s/%s", pc.ConnConfig.Host, pc.ConnConfig.Database)
	}
	if pc.MaxConns != 8 || pc.MinConns != 8 {
		t.Fatalf("expected min conns capped at max 8, got max=%d min=%d", pc.MaxConns, pc.MinConns)
	}
	if pc.MaxConnLifetime != 3*time.Minute {
		t.Fatalf("unexpected lifetime %s", pc.MaxConnLifetime)
	}
	if got := pc.ConnConfig.RuntimeParams["application_name"]; got != applicationName {
		t.Fatalf("unexpected application_name %q", got)
	}
}

func TestPoolConfigKeepsURLApplicationName(t *testing.T) {
	pc, err := poolConfig(&config.DatabaseConfig{
		URL:      "postgres://dandi@db:5432/keys?application_name=ops",
		Password: "x",
	})
	if err != nil {
		t.Fatalf("pool config: %v", err)
	}
	if got := pc.ConnConfig.RuntimeParams["application_name"]; got != "ops" {
		t.Fatalf("expected application_name from url, got %q", got)
	}
}

func TestPoolConfigRejectsBadURL(t *testing.T) {
	if _, err := poolConfig(&config.DatabaseConfig{URL: "postgres://host:notaport/db", Password: "x"}); err == nil {
		t.Fatalf("expected parse error")
	}
}
