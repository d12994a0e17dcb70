package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dojo/internal/adapters/storage"
	domain "dojo/internal/domain/outbox"
)

const (
	timeLayout = time.RFC3339Nano
	columns    = "id, action_type, payload, status, attempts, max_attempts, last_attempted_at, created_at, external_id, error_message"
)

// SQLiteStore implements the outbox Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an outbox entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	e, err := scan(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM outbox WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("outbox entry %s not found: %w", id, err)
	}
	return e, err
}

// Save persists an outbox entry (insert or update).
// PRE: entry has been validated
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	last := ""
	if !e.LastAttemptedAt.IsZero() {
		last = e.LastAttemptedAt.UTC().Format(timeLayout)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at, external_id=excluded.external_id,
		   error_message=excluded.error_message`,
		e.ID, e.ActionType, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		last, e.CreatedAt.UTC().Format(timeLayout), e.ExternalID, e.ErrorMessage)
	if err != nil {
		return fmt.Errorf("save outbox entry %s: %w", e.ID, err)
	}
	return nil
}

// ListPending returns entries still awaiting delivery.
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx,
		"SELECT "+columns+" FROM outbox WHERE status IN (?, ?) ORDER BY created_at ASC LIMIT ?",
		domain.StatusPending, domain.StatusRetrying, limit)
}

// ListFailed returns entries that will not be retried automatically.
func (s *SQLiteStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx,
		"SELECT "+columns+" FROM outbox WHERE status = ? AND attempts >= max_attempts ORDER BY last_attempted_at DESC LIMIT ?",
		domain.StatusFailed, limit)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (domain.Entry, error) {
	var e domain.Entry
	var created, last string
	err := sc.Scan(&e.ID, &e.ActionType, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&last, &created, &e.ExternalID, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return domain.Entry{}, fmt.Errorf("outbox entry %s has bad created_at: %w", e.ID, err)
	}
	if last != "" {
		if e.LastAttemptedAt, err = time.Parse(timeLayout, last); err != nil {
			return domain.Entry{}, fmt.Errorf("outbox entry %s has bad last_attempted_at: %w", e.ID, err)
		}
	}
	return e, nil
}
