package attendance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"dojo/internal/adapters/storage"
	domain "dojo/internal/domain/attendance"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := domain.Record{ID: "a1", StudentID: "s1", ClassID: "c1", Date: day(3), Status: domain.StatusLate, Notes: "traffic"}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.GetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != rec {
		t.Errorf("GetByID = %+v, want %+v", got, rec)
	}

	rec.Status = domain.StatusPresent
	rec.Notes = ""
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetByID(ctx, "a1")
	if got.Status != domain.StatusPresent || got.Notes != "" {
		t.Errorf("after update = %+v", got)
	}

	if err := s.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetByID(ctx, "a1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID after delete = %v, want sql.ErrNoRows", err)
	}
}

func TestSQLiteStore_DuplicateMarkRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, domain.Record{ID: "a1", StudentID: "s1", ClassID: "c1", Date: day(3), Status: domain.StatusPresent}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, domain.Record{ID: "a2", StudentID: "s1", ClassID: "c1", Date: day(3), Status: domain.StatusAbsent}); err == nil {
		t.Error("second mark for the same session was accepted")
	}
}

func TestSQLiteStore_ListFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, r := range []domain.Record{
		{ID: "a1", StudentID: "s1", ClassID: "c1", Date: day(1), Status: domain.StatusPresent},
		{ID: "a2", StudentID: "s2", ClassID: "c1", Date: day(8), Status: domain.StatusAbsent},
		{ID: "a3", StudentID: "s1", ClassID: "c2", Date: day(8), Status: domain.StatusPresent},
		{ID: "a4", StudentID: "s1", ClassID: "c1", Date: day(15), Status: domain.StatusExcused},
	} {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save %s: %v", r.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"all", ListFilter{}, []string{"a1", "a3", "a2", "a4"}},
		{"window inclusive", ListFilter{From: day(1), To: day(8)}, []string{"a1", "a3", "a2"}},
		{"class", ListFilter{ClassID: "c1"}, []string{"a1", "a2", "a4"}},
		{"student in window", ListFilter{From: day(2), To: day(31), StudentID: "s1"}, []string{"a3", "a4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List = %d records, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("record[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}
