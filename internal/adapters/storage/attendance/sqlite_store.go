package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dojo/internal/adapters/storage"
	domain "dojo/internal/domain/attendance"
)

const columns = "id, student_id, class_id, class_date, status, notes"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a record by its ID.
// PRE: id is non-empty
// POST: Returns the record or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM attendance WHERE id = ?", id)
	r, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, fmt.Errorf("attendance %s not found: %w", id, err)
	}
	return r, err
}

// Save inserts or updates a record.
// PRE: record has been validated
// POST: Record persisted; a second mark for the same student, class and date is rejected
func (s *SQLiteStore) Save(ctx context.Context, r domain.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance (`+columns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   student_id=excluded.student_id, class_id=excluded.class_id,
		   class_date=excluded.class_date, status=excluded.status, notes=excluded.notes`,
		r.ID, r.StudentID, r.ClassID, r.Date.Format(domain.DateLayout), r.Status, r.Notes)
	if err != nil {
		return fmt.Errorf("save attendance %s: %w", r.ID, err)
	}
	return nil
}

// Delete removes a record.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM attendance WHERE id = ?", id)
	return err
}

// List returns records matching the filter ordered by date then student.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Record, error) {
	var where []string
	var args []any
	if !f.From.IsZero() {
		where = append(where, "class_date >= ?")
		args = append(args, f.From.Format(domain.DateLayout))
	}
	if !f.To.IsZero() {
		where = append(where, "class_date <= ?")
		args = append(args, f.To.Format(domain.DateLayout))
	}
	if f.ClassID != "" {
		where = append(where, "class_id = ?")
		args = append(args, f.ClassID)
	}
	if f.StudentID != "" {
		where = append(where, "student_id = ?")
		args = append(args, f.StudentID)
	}

	query := "SELECT " + columns + " FROM attendance"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY class_date, student_id, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (domain.Record, error) {
	var r domain.Record
	var date string
	if err := sc.Scan(&r.ID, &r.StudentID, &r.ClassID, &date, &r.Status, &r.Notes); err != nil {
		return domain.Record{}, err
	}
	d, err := domain.ParseDate(date)
	if err != nil {
		return domain.Record{}, fmt.Errorf("attendance %s has bad class_date %q: %w", r.ID, date, err)
	}
	r.Date = d
	return r, nil
}
