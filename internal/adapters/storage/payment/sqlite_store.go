package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dojo/internal/adapters/storage"
	domain "dojo/internal/domain/payment"
)

const (
	timeLayout = time.RFC3339Nano
	columns    = "id, subject_id, amount, refunded_amount, status, description, payment_date, external_reference, extension"
)

// SQLiteStore implements Store using SQLite. The typed Extension is kept as
// a JSON document in its own column.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new payment store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a payment by its ID.
// PRE: id is non-empty
// POST: Returns the record or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Record, error) {
	r, err := scan(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM payment WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, fmt.Errorf("payment %s not found: %w", id, err)
	}
	return r, err
}

// GetByExternalReference finds the payment a gateway order id belongs to.
// PRE: ref is non-empty
// POST: Returns the record or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByExternalReference(ctx context.Context, ref string) (domain.Record, error) {
	r, err := scan(s.db.QueryRowContext(ctx,
		"SELECT "+columns+" FROM payment WHERE external_reference = ? ORDER BY payment_date DESC LIMIT 1", ref))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, fmt.Errorf("payment with reference %s not found: %w", ref, err)
	}
	return r, err
}

// Save inserts or updates a payment.
// PRE: record has been validated
// POST: Record persisted with the current extension version
func (s *SQLiteStore) Save(ctx context.Context, r domain.Record) error {
	if r.Extension.Version == 0 {
		r.Extension.Version = domain.ExtensionVersion
	}
	ext, err := json.Marshal(r.Extension)
	if err != nil {
		return fmt.Errorf("encode payment extension: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO payment (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   subject_id=excluded.subject_id, amount=excluded.amount,
		   refunded_amount=excluded.refunded_amount, status=excluded.status,
		   description=excluded.description, payment_date=excluded.payment_date,
		   external_reference=excluded.external_reference, extension=excluded.extension`,
		r.ID, r.SubjectID, r.Amount, r.RefundedAmount, r.Status, r.Description,
		r.PaymentDate.UTC().Format(timeLayout), r.ExternalReference, string(ext))
	if err != nil {
		return fmt.Errorf("save payment %s: %w", r.ID, err)
	}
	return nil
}

// SaveRefund updates refunded_amount and status, guarded on the amount the
// caller read.
// POST: Error wraps domain.ErrRefundChanged when another refund got there first
func (s *SQLiteStore) SaveRefund(ctx context.Context, r domain.Record, readRefunded int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payment SET refunded_amount = ?, status = ? WHERE id = ? AND refunded_amount = ?`,
		r.RefundedAmount, r.Status, r.ID, readRefunded)
	if err != nil {
		return fmt.Errorf("save refund %s: %w", r.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save refund %s: %w", r.ID, err)
	}
	if n == 1 {
		return nil
	}
	var now int64
	err = s.db.QueryRowContext(ctx, "SELECT refunded_amount FROM payment WHERE id = ?", r.ID).Scan(&now)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("payment %s not found: %w", r.ID, err)
	}
	if err != nil {
		return fmt.Errorf("save refund %s: %w", r.ID, err)
	}
	return fmt.Errorf("save refund %s: read %d, now %d: %w", r.ID, readRefunded, now, domain.ErrRefundChanged)
}

// List returns payments matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Record, error) {
	var where []string
	var args []any
	if f.SubjectID != "" {
		where = append(where, "subject_id = ?")
		args = append(args, f.SubjectID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	query := "SELECT " + columns + " FROM payment"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY payment_date DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
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
	var date, ext string
	err := sc.Scan(&r.ID, &r.SubjectID, &r.Amount, &r.RefundedAmount, &r.Status,
		&r.Description, &date, &r.ExternalReference, &ext)
	if err != nil {
		return domain.Record{}, err
	}
	if r.PaymentDate, err = time.Parse(timeLayout, date); err != nil {
		return domain.Record{}, fmt.Errorf("payment %s has bad payment_date %q: %w", r.ID, date, err)
	}
	if ext != "" {
		// Newer writers may add fields; unknown keys are ignored.
		if err := json.Unmarshal([]byte(ext), &r.Extension); err != nil {
			return domain.Record{}, fmt.Errorf("payment %s has bad extension: %w", r.ID, err)
		}
	}
	return r, nil
}
