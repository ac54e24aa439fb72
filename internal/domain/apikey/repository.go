package apikey

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAPIKeyNotFound = errors.New("api key not found or inactive")

// Repository is the persistence collaborator of the validator. FindActiveBySecret returns
// ErrAPIKeyNotFound when no active record carries the secret.
type Repository interface {
	FindActiveBySecret(ctx context.Context, secret string) (*APIKey, error)
	IncrementUsage(ctx context.Context, id uuid.UUID, newUsage int64, usedAt time.Time) error
}

// AdminRepository is used by operator tooling; the validator never creates or edits keys.
type AdminRepository interface {
	Create(ctx context.Context, key *APIKey) (*APIKey, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*APIKey, error)
}
