package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dojo/internal/adapters/storage"
	domain "dojo/internal/domain/membership"
)

const (
	timeLayout        = time.RFC3339Nano
	dateLayout        = "2006-01-02"
	planColumns       = "id, name, base_price_cents, setup_fee_cents, billing_interval, active"
	assignmentColumns = "id, member_id, plan_id, start_date, status, price_cents, setup_fee_cents, payment_path, subscription_cycle, created_at"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new membership store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetPlan retrieves a plan by its ID.
// PRE: id is non-empty
// POST: Returns the plan or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (domain.Plan, error) {
	p, err := scanPlan(s.db.QueryRowContext(ctx, "SELECT "+planColumns+" FROM membership_plan WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Plan{}, fmt.Errorf("plan %s not found: %w", id, err)
	}
	return p, err
}

// SavePlan inserts or updates a plan.
// PRE: plan has been validated
func (s *SQLiteStore) SavePlan(ctx context.Context, p domain.Plan) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO membership_plan (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, base_price_cents=excluded.base_price_cents,
		   setup_fee_cents=excluded.setup_fee_cents, billing_interval=excluded.billing_interval,
		   active=excluded.active`,
		p.ID, p.Name, p.BasePriceCents, p.SetupFeeCents, p.BillingInterval, p.Active)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", p.ID, err)
	}
	return nil
}

// ListPlans returns plans ordered by name.
func (s *SQLiteStore) ListPlans(ctx context.Context, activeOnly bool) ([]domain.Plan, error) {
	query := "SELECT " + planColumns + " FROM membership_plan"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetAssignment retrieves an assignment by its ID.
// PRE: id is non-empty
// POST: Returns the assignment or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	a, err := scanAssignment(s.db.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM membership_assignment WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Assignment{}, fmt.Errorf("assignment %s not found: %w", id, err)
	}
	return a, err
}

// SaveAssignment inserts or updates an assignment.
// PRE: assignment has been validated; member and plan exist
func (s *SQLiteStore) SaveAssignment(ctx context.Context, a domain.Assignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO membership_assignment (`+assignmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, price_cents=excluded.price_cents,
		   setup_fee_cents=excluded.setup_fee_cents, payment_path=excluded.payment_path,
		   subscription_cycle=excluded.subscription_cycle`,
		a.ID, a.MemberID, a.PlanID, a.StartDate.Format(dateLayout), a.Status, a.PriceCents,
		a.SetupFeeCents, a.PaymentPath, a.SubscriptionCycle, a.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save assignment %s: %w", a.ID, err)
	}
	return nil
}

// ListAssignmentsByMember returns a member's assignments, newest first.
func (s *SQLiteStore) ListAssignmentsByMember(ctx context.Context, memberID string) ([]domain.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+assignmentColumns+" FROM membership_assignment WHERE member_id = ? ORDER BY created_at DESC", memberID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(sc scanner) (domain.Plan, error) {
	var p domain.Plan
	err := sc.Scan(&p.ID, &p.Name, &p.BasePriceCents, &p.SetupFeeCents, &p.BillingInterval, &p.Active)
	return p, err
}

func scanAssignment(sc scanner) (domain.Assignment, error) {
	var a domain.Assignment
	var start, created string
	err := sc.Scan(&a.ID, &a.MemberID, &a.PlanID, &start, &a.Status, &a.PriceCents,
		&a.SetupFeeCents, &a.PaymentPath, &a.SubscriptionCycle, &created)
	if err != nil {
		return domain.Assignment{}, err
	}
	if a.StartDate, err = time.ParseInLocation(dateLayout, start, time.UTC); err != nil {
		return domain.Assignment{}, fmt.Errorf("assignment %s has bad start_date: %w", a.ID, err)
	}
	if a.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return domain.Assignment{}, fmt.Errorf("assignment %s has bad created_at: %w", a.ID, err)
	}
	return a, nil
}
