// Package storage persists the small per-browser values the console keeps:
// the session token, the sidebar preference and the pending notification.
// Every backend is a plain string key-value store; expiry and validation live
// in the session layer.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
