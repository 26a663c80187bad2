// Package authgate validates API keys and records usage.
//
// The retrieval engine itself never sees credentials; requests reach it
// only after a Gate has validated the caller. The admin surface for keys
// lives in the CLI, not HTTP.
package authgate

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidKey is returned for unknown or deactivated API keys.
var ErrInvalidKey = errors.New("invalid or inactive API key")

// APIKey is a validated credential and its owner.
type APIKey struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Owner     string    `json:"owner"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Gate validates API keys before a query reaches the engine.
type Gate interface {
	// Validate returns the key record when key is known and active,
	// ErrInvalidKey otherwise.
	Validate(ctx context.Context, key string) (*APIKey, error)
}

// UsageRecorder records one access per validated request.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, keyID int64, endpoint string) error
}
