package membership

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"dojo/internal/adapters/storage"
	domain "dojo/internal/domain/membership"
)

func newTestStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db), db
}

func TestSQLiteStore_Plans(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	gold := domain.Plan{ID: "gold", Name: "Gold Plan", BasePriceCents: 12000, SetupFeeCents: 5000, BillingInterval: domain.IntervalMonthly, Active: true}
	kids := domain.Plan{ID: "kids", Name: "Kids Term", BasePriceCents: 30000, BillingInterval: domain.IntervalTerm, Active: false}
	for _, p := range []domain.Plan{gold, kids} {
		if err := s.SavePlan(ctx, p); err != nil {
			t.Fatalf("SavePlan: %v", err)
		}
	}

	got, err := s.GetPlan(ctx, "gold")
	if err != nil || got != gold {
		t.Errorf("GetPlan = %+v, %v", got, err)
	}
	active, _ := s.ListPlans(ctx, true)
	if len(active) != 1 || active[0].ID != "gold" {
		t.Errorf("ListPlans(active) = %+v", active)
	}
	all, _ := s.ListPlans(ctx, false)
	if len(all) != 2 {
		t.Errorf("ListPlans(all) = %d plans", len(all))
	}
	if _, err := s.GetPlan(ctx, "none"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetPlan(none) = %v", err)
	}
}

func TestSQLiteStore_Assignments(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO member (id, name, email, status) VALUES ('m1', 'Mere', 'mere@example.com', 'active')`); err != nil {
		t.Fatalf("insert member: %v", err)
	}
	if err := s.SavePlan(ctx, domain.Plan{ID: "gold", Name: "Gold Plan", BasePriceCents: 100, BillingInterval: domain.IntervalMonthly, Active: true}); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	a := domain.Assignment{
		ID:                "a1",
		MemberID:          "m1",
		PlanID:            "gold",
		StartDate:         time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Status:            domain.StatusActive,
		PriceCents:        90,
		PaymentPath:       domain.PathManual,
		SubscriptionCycle: "cycle-1",
		CreatedAt:         time.Date(2026, 6, 20, 8, 0, 0, 0, time.UTC),
	}
	if err := s.SaveAssignment(ctx, a); err != nil {
		t.Fatalf("SaveAssignment: %v", err)
	}
	got, err := s.GetAssignment(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAssignment: %v", err)
	}
	if got != a {
		t.Errorf("GetAssignment = %+v, want %+v", got, a)
	}

	list, _ := s.ListAssignmentsByMember(ctx, "m1")
	if len(list) != 1 {
		t.Errorf("ListAssignmentsByMember = %d", len(list))
	}

	orphan := a
	orphan.ID, orphan.MemberID = "a2", "ghost"
	if err := s.SaveAssignment(ctx, orphan); err == nil {
		t.Error("assignment for unknown member accepted")
	}
}
