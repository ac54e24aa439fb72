//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
	"go.uber.org/zap"
)

func integrationPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: database not reachable (%v)", err)
	}
	if _, err := ApplyMigrations(ctx, pool, zap.NewNop()); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE api_keys`); err != nil {
		pool.Close()
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func TestAPIKeyRepositoryIntegration(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(t, ctx)
	defer pool.Close()

	repo := NewAPIKeyRepository(pool, zap.NewNop())

	created, err := repo.Create(ctx, &apikey.APIKey{
		Name:       "integration",
		Secret:     "dandi-test-integration000000000000",
		Type:       "test",
		IsActive:   true,
		UsageLimit: 2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := repo.FindActiveBySecret(ctx, "dandi-test-integration000000000000")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != created.ID || found.Secret != "" {
		t.Fatalf("unexpected record: %+v", found)
	}

	usedAt := time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.IncrementUsage(ctx, found.ID, 1, usedAt); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := repo.IncrementUsage(ctx, found.ID, 1, usedAt.Add(-time.Hour)); err != nil {
		t.Fatalf("replayed increment: %v", err)
	}

	found, err = repo.FindActiveBySecret(ctx, "dandi-test-integration000000000000")
	if err != nil {
		t.Fatalf("find after increment: %v", err)
	}
	if found.Usage != 1 {
		t.Fatalf("expected usage 1, got %d", found.Usage)
	}
	if found.LastUsedAt == nil || !found.LastUsedAt.Equal(usedAt) {
		t.Fatalf("expected last used %s, got %v", usedAt, found.LastUsedAt)
	}

	inactive := false
	if _, err := repo.Update(ctx, found.ID, apikey.UpdateParams{IsActive: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := repo.FindActiveBySecret(ctx, "dandi-test-integration000000000000"); !errors.Is(err, apikey.ErrAPIKeyNotFound) {
		t.Fatalf("expected not found for inactive key, got %v", err)
	}
}
