package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateAPIKeyRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Type       string `json:"type" validate:"required,oneof=dev prod test"`
	UsageLimit int64  `json:"usageLimit" validate:"gt=0"`
}

// CreateAPIKeyResponse is the only place the secret is ever shown.
type CreateAPIKeyResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	Type       string    `json:"type"`
	UsageLimit int64     `json:"usageLimit"`
	CreatedAt  time.Time `json:"createdAt"`
}

type UpdateAPIKeyRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Type       *string `json:"type,omitempty" validate:"omitempty,oneof=dev prod test"`
	UsageLimit *int64  `json:"usageLimit,omitempty" validate:"omitempty,gt=0"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

type APIKeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	IsActive   bool       `json:"isActive"`
	Usage      int64      `json:"usage"`
	UsageLimit int64      `json:"usageLimit"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsed,omitempty"`
}
