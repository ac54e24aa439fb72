package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
	"github.com/makkenzo/apikey-validator/internal/ierr"
	"go.uber.org/zap"
)

type APIKeyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAPIKeyRepository(db *pgxpool.Pool, logger *zap.Logger) *APIKeyRepository {
	return &APIKeyRepository{
		db:     db,
		logger: logger.Named("APIKeyRepository"),
	}
}

var (
	_ apikey.Repository      = (*APIKeyRepository)(nil)
	_ apikey.AdminRepository = (*APIKeyRepository)(nil)
)

// FindActiveBySecret never selects the secret column.
func (r *APIKeyRepository) FindActiveBySecret(ctx context.Context, secret string) (*apikey.APIKey, error) {
	query := `
		SELECT id, name, type, is_active, usage, usage_limit, created_at, last_used
		FROM api_keys
		WHERE key = $1 AND is_active = TRUE
	`
	row := r.db.QueryRow(ctx, query, secret)

	var key apikey.APIKey
	var lastUsed sql.NullTime

	err := row.Scan(
		&key.ID,
		&key.Name,
		&key.Type,
		&key.IsActive,
		&key.Usage,
		&key.UsageLimit,
		&key.CreatedAt,
		&lastUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("API key not found or inactive")
			return nil, apikey.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to find api key by secret", zap.Error(err))
		return nil, fmt.Errorf("db error finding api key: %w", err)
	}

	if lastUsed.Valid {
		key.LastUsedAt = &lastUsed.Time
	}

	return &key, nil
}

// IncrementUsage records a successful validation. The write only moves usage and last_used
// forward, so replaying it is harmless and it never lowers a value written concurrently.
func (r *APIKeyRepository) IncrementUsage(ctx context.Context, id uuid.UUID, newUsage int64, usedAt time.Time) error {
	query := `
		UPDATE api_keys
		SET usage = GREATEST(usage, $2),
		    last_used = GREATEST(COALESCE(last_used, $3), $3)
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query, id, newUsage, usedAt)
	if err != nil {
		r.logger.Error("Failed to update api key usage", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error updating usage: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("API key not found when updating usage", zap.String("id", id.String()))
	}
	return nil
}

func (r *APIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) (*apikey.APIKey, error) {
	query := `
		INSERT INTO api_keys (name, key, type, is_active, usage, usage_limit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	created := *key

	err := r.db.QueryRow(ctx, query,
		key.Name,
		key.Secret,
		key.Type,
		key.IsActive,
		key.Usage,
		key.UsageLimit,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Failed to create API key due to unique constraint violation",
				zap.String("constraint", pgErr.ConstraintName),
			)
			return nil, fmt.Errorf("%w: api key constraint violation (%s)", ierr.ErrConflict, pgErr.ConstraintName)
		}
		r.logger.Error("Failed to create api key in database", zap.Error(err))
		return nil, fmt.Errorf("db error creating api key: %w", err)
	}

	r.logger.Info("API key created successfully", zap.String("id", created.ID.String()), zap.String("type", created.Type))
	return &created, nil
}

func (r *APIKeyRepository) Update(ctx context.Context, id uuid.UUID, params apikey.UpdateParams) (*apikey.APIKey, error) {
	if params.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ierr.ErrInvalidInput)
	}

	query, args := buildUpdateQuery(id, params)
	row := r.db.QueryRow(ctx, query, args...)

	var key apikey.APIKey
	var lastUsed sql.NullTime
	err := row.Scan(
		&key.ID,
		&key.Name,
		&key.Secret,
		&key.Type,
		&key.IsActive,
		&key.Usage,
		&key.UsageLimit,
		&key.CreatedAt,
		&lastUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("API key not found for update", zap.String("id", id.String()))
			return nil, fmt.Errorf("%w: api key %s", ierr.ErrNotFound, id)
		}
		r.logger.Error("Failed to update api key", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ierr.ErrAPIKeyUpdateFailed, err)
	}
	if lastUsed.Valid {
		key.LastUsedAt = &lastUsed.Time
	}

	r.logger.Info("API key updated successfully", zap.String("id", id.String()))
	return &key, nil
}

func buildUpdateQuery(id uuid.UUID, params apikey.UpdateParams) (string, []any) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Type != nil {
		add("type", *params.Type)
	}
	if params.UsageLimit != nil {
		add("usage_limit", *params.UsageLimit)
	}
	if params.IsActive != nil {
		add("is_active", *params.IsActive)
	}

	args = append(args, id)
	query := "UPDATE api_keys SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING id, name, key, type, is_active, usage, usage_limit, created_at, last_used"

	return query, args
}
