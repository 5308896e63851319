package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps values in the console_kv table created by
// database.EnsureSchema.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, ttl: ttl}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM console_kv
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`, key).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get console value: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value string) error {
	var expiresAt *time.Time
	if s.ttl > 0 {
		at := time.Now().UTC().Add(s.ttl)
		expiresAt = &at
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO console_kv (key, value, updated_at, expires_at)
		 VALUES ($1, $2, now(), $3)
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at`,
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("set console value: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM console_kv WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("remove console value: %w", err)
	}
	return nil
}

func (s *PostgresStore) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM console_kv WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("clean expired console values: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StartCleanupTicker purges expired rows every interval until ctx is done.
func (s *PostgresStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.CleanExpired(ctx)
			if err != nil {
				slog.Warn("console value cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired console values removed", "count", removed)
			}
		}
	}
}
