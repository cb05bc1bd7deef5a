package repository

import (
	"context"
)

// KV is the persistent key-value primitive the cart snapshot lives in.
type KV interface {
	// Get returns the value stored under key, or an error wrapping
	// apperrors.ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
