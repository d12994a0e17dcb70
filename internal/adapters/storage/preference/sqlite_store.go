package preference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dojo/internal/adapters/storage"
)

// SQLiteStore implements Store on the preference table.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new preference store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Get returns the stored value for key.
// POST: ok is false and err nil when the key has never been set
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preference WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preference (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}
