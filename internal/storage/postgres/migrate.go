package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-validator/migrations"
	"go.uber.org/zap"
)

const migrationLockID int64 = 0x44414e44495f4d47 // "DANDI_MG"

// ApplyMigrations runs the embedded migrations that have not been applied yet. Concurrent
// callers are serialized with an advisory lock.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (int, error) {
	if pool == nil {
		return 0, errors.New("nil database pool")
	}
	log := logger.Named("Migrations")
	started := time.Now()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire db connection for migrations: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return 0, fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, unlockErr := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock($1)`, migrationLockID); unlockErr != nil {
			log.Error("Failed to release migration lock", zap.Error(unlockErr))
		}
	}()

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return 0, fmt.Errorf("create schema_migrations table: %w", err)
	}

	files, err := migrations.Ordered()
	if err != nil {
		return 0, fmt.Errorf("load embedded migrations: %w", err)
	}

	applied := 0
	for _, m := range files {
		var done bool
		if err := conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, m.Name,
		).Scan(&done); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", m.Name, err)
		}
		if done {
			continue
		}

		log.Info("Applying migration", zap.String("file", m.Name))
		if err := applyMigration(ctx, conn, m); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		applied++
	}

	log.Info("Migrations complete", zap.Int("applied", applied), zap.Duration("took", time.Since(started)))
	return applied, nil
}

func applyMigration(ctx context.Context, conn *pgxpool.Conn, m migrations.File) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, m.SQL, pgx.QueryExecModeSimpleProtocol); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, m.Name); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
