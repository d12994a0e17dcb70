package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dojo/internal/adapters/storage"
	domain "dojo/internal/domain/member"
)

const columns = "id, name, email, status, payment_token"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new member store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	var m domain.Member
	err := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM member WHERE id = ?", id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Status, &m.PaymentToken)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member %s not found: %w", id, err)
	}
	return m, err
}

// GetByEmail retrieves a Member by email, ignoring case.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	var m domain.Member
	err := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM member WHERE lower(email) = ?", domain.NormalizeEmail(email)).
		Scan(&m.ID, &m.Name, &m.Email, &m.Status, &m.PaymentToken)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member with email %s not found: %w", email, err)
	}
	return m, err
}

// Save inserts or updates a Member.
// PRE: member has been validated
func (s *SQLiteStore) Save(ctx context.Context, m domain.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO member (`+columns+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, email=excluded.email, status=excluded.status,
		   payment_token=excluded.payment_token`,
		m.ID, m.Name, m.Email, m.Status, m.PaymentToken)
	if err != nil {
		return fmt.Errorf("save member %s: %w", m.ID, err)
	}
	return nil
}

// List returns members matching the filter ordered by name.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Member, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if len(f.IDs) > 0 {
		where = append(where, "id IN (?"+strings.Repeat(", ?", len(f.IDs)-1)+")")
		for _, id := range f.IDs {
			args = append(args, id)
		}
	}
	query := "SELECT " + columns + " FROM member"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Status, &m.PaymentToken); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
