package storage

import (
	"context"
	"errors"
	"fmt"
)

// TokenStore is the token slot of a single browser.
type TokenStore struct {
	store Store
	key   string
}

func NewTokenStore(store Store, clientID string) *TokenStore {
	return &TokenStore{store: store, key: KeysFor(clientID).Token()}
}

// Get reports false when no token is stored.
func (t *TokenStore) Get(ctx context.Context) (string, bool, error) {
	value, err := t.store.Get(ctx, t.key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}
	if value == "" {
		return "", false, nil
	}

	return value, true, nil
}

func (t *TokenStore) Set(ctx context.Context, token string) error {
	if err := t.store.Set(ctx, t.key, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (t *TokenStore) Remove(ctx context.Context) error {
	if err := t.store.Remove(ctx, t.key); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
