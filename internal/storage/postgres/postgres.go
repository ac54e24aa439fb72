package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-validator/internal/config"
	"go.uber.org/zap"
)

const (
	applicationName = "apikey-validator"
	connectTimeout  = 10 * time.Second
	pingTimeout     = 5 * time.Second
)

// poolConfig turns the database section into a pgx pool config. The password is kept out of
// DATABASE_URL and injected here; zero pool sizes keep the pgx defaults.
func poolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}

	if cfg.Password != "" {
		pc.ConnConfig.Password = cfg.Password
	}
	if pc.ConnConfig.RuntimeParams["application_name"] == "" {
		pc.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pc.MinConns = int32(min(cfg.MaxIdleConns, int(pc.MaxConns)))
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	return pc, nil
}

// NewPgxPool opens the key store pool and fails unless the server answers a ping.
func NewPgxPool(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	log := logger.Named("Postgres")

	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	log.Debug("Opening PostgreSQL pool",
		zap.String("host", pc.ConnConfig.Host),
		zap.String("database", pc.ConnConfig.Database),
		zap.Int32("maxConns", pc.MaxConns),
		zap.Int32("minConns", pc.MinConns),
		zap.Duration("maxConnLifetime", pc.MaxConnLifetime),
	)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, pingTimeout)
	defer cancelPing()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres at %s: %w", pc.ConnConfig.Host, err)
	}

	log.Info("Connected to PostgreSQL",
		zap.String("host", pc.ConnConfig.Host),
		zap.String("database", pc.ConnConfig.Database),
		zap.Int32("maxConns", pc.MaxConns),
	)
	return pool, nil
}
