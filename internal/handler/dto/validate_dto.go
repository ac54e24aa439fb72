package dto

import (
	"time"

	"github.com/google/uuid"
)

// ValidateKeyRequest is the body of a validation call. A non-string apiKey fails binding and is
// treated as absent.
type ValidateKeyRequest struct {
	APIKey *string `json:"apiKey"`
}

type KeyInfo struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Usage      int64     `json:"usage"`
	UsageLimit int64     `json:"usageLimit"`
	LastUsed   time.Time `json:"lastUsed"`
}

type ValidateKeyResponse struct {
	IsValid bool     `json:"isValid"`
	KeyInfo *KeyInfo `json:"keyInfo,omitempty"`
}
