// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CacheGet returns the cached response for key if present and unexpired.
func (s *Store) CacheGet(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		payload []byte
		expires string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT response, expires_at FROM api_cache WHERE key = ?`, key).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}

	expiry, err := time.Parse(time.RFC3339Nano, expires)
	if err != nil || time.Now().After(expiry) {
		// Expired entries are lazily removed on read.
		s.db.ExecContext(ctx, `DELETE FROM api_cache WHERE key = ?`, key)
		return nil, false, nil
	}
	return payload, true, nil
}

// CacheSet stores a response under key with the given lifetime.
func (s *Store) CacheSet(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	expires := time.Now().Add(ttl).UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_cache (key, response, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET response=excluded.response, expires_at=excluded.expires_at`,
		key, payload, expires)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// CachePurge removes all expired cache entries and returns the count removed.
func (s *Store) CachePurge(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM api_cache WHERE expires_at < ?`, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
