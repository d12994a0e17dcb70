package member

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"dojo/internal/adapters/storage"
	domain "dojo/internal/domain/member"
)

func TestSQLiteStore(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	s := NewSQLiteStore(db)
	ctx := context.Background()

	members := []domain.Member{
		{ID: "m1", Name: "Wiremu", Email: "wiremu@example.com", Status: domain.StatusActive, PaymentToken: "tok-1"},
		{ID: "m2", Name: "Anahera", Email: "anahera@example.com", Status: domain.StatusActive},
		{ID: "m3", Name: "Hemi", Email: "hemi@example.com", Status: domain.StatusArchived},
	}
	for _, m := range members {
		if err := s.Save(ctx, m); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.GetByID(ctx, "m1")
	if err != nil || got != members[0] {
		t.Errorf("GetByID = %+v, %v", got, err)
	}
	if _, err := s.GetByID(ctx, "zz"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID(zz) = %v", err)
	}

	byEmail, err := s.GetByEmail(ctx, "Anahera@Example.com")
	if err != nil || byEmail.ID != "m2" {
		t.Errorf("GetByEmail = %+v, %v", byEmail, err)
	}
	if _, err := s.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByEmail(nobody) = %v", err)
	}

	active, _ := s.List(ctx, ListFilter{Status: domain.StatusActive})
	if len(active) != 2 || active[0].Name != "Anahera" {
		t.Errorf("List(active) = %+v", active)
	}
	picked, _ := s.List(ctx, ListFilter{IDs: []string{"m1", "m3"}})
	if len(picked) != 2 || picked[0].ID != "m3" {
		t.Errorf("List(ids) = %+v", picked)
	}
}
