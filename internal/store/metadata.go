package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetMetadata retrieves a metadata value by key. A missing key returns
// sql.ErrNoRows.
func (s *Store) GetMetadata(ctx context.Context, key string) (value string, err error) {
	start := time.Now()
	defer func() { observe("metadata_get", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	return value, err
}

// SetMetadata upserts a metadata key-value pair.
func (s *Store) SetMetadata(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { observe("metadata_set", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMetadataTime parses a stored RFC3339 timestamp. A missing or empty
// value yields the zero time without an error.
func (s *Store) GetMetadataTime(ctx context.Context, key string) (time.Time, error) {
	value, err := s.GetMetadata(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// SetMetadataTime stores a timestamp as RFC3339.
func (s *Store) SetMetadataTime(ctx context.Context, key string, t time.Time) error {
	return s.SetMetadata(ctx, key, t.Format(time.RFC3339))
}
