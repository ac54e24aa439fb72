package apikey

import (
	"time"

	"github.com/google/uuid"
)

type APIKey struct {
	ID         uuid.UUID  `db:"id"`
	Name       string     `db:"name"`
	Secret     string     `db:"key"`
	Type       string     `db:"type"`
	IsActive   bool       `db:"is_active"`
	Usage      int64      `db:"usage"`
	UsageLimit int64      `db:"usage_limit"`
	CreatedAt  time.Time  `db:"created_at"`
	LastUsedAt *time.Time `db:"last_used"`
}

// Exhausted reports whether the key has no validations left.
func (k *APIKey) Exhausted() bool {
	return k.Usage >= k.UsageLimit
}

const (
	DefaultUsageLimit  = 1000
	MaxSecretLength    = 100
	SecretRandomLength = 24
	SecretFormat       = "dandi-%s-%s"
)

var Types = []string{"dev", "prod", "test"}

// UpdateParams carries the mutable attributes of a key. Nil fields are left untouched.
type UpdateParams struct {
	Name       *string
	Type       *string
	UsageLimit *int64
	IsActive   *bool
}

func (p UpdateParams) Empty() bool {
	return p.Name == nil && p.Type == nil && p.UsageLimit == nil && p.IsActive == nil
}
