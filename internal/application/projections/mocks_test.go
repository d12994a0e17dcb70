package projections

import (
	"context"
	"database/sql"
	"slices"
	"strconv"
	"sync"
	"time"

	attendanceStore "dojo/internal/adapters/storage/attendance"
	inventoryStore "dojo/internal/adapters/storage/inventory"
	memberStore "dojo/internal/adapters/storage/member"
	paymentStore "dojo/internal/adapters/storage/payment"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/inventory"
	"dojo/internal/domain/member"
	"dojo/internal/domain/payment"
)

type mockAttendanceStore struct {
	mu      sync.Mutex
	records []attendance.Record
	err     error
	last    attendanceStore.ListFilter
}

// List returns seeded records within the filter's window and class.
func (m *mockAttendanceStore) List(_ context.Context, f attendanceStore.ListFilter) ([]attendance.Record, error) {
	m.mu.Lock()
	m.last = f
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []attendance.Record
	for _, r := range m.records {
		if !f.From.IsZero() && r.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && r.Date.After(f.To) {
			continue
		}
		if f.ClassID != "" && r.ClassID != f.ClassID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type mockMemberStore struct {
	members []member.Member
	err     error
}

// List returns seeded members, narrowed by the filter's IDs and status.
func (m *mockMemberStore) List(_ context.Context, f memberStore.ListFilter) ([]member.Member, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []member.Member
	for _, mem := range m.members {
		if len(f.IDs) > 0 && !slices.Contains(f.IDs, mem.ID) {
			continue
		}
		if f.Status != "" && mem.Status != f.Status {
			continue
		}
		out = append(out, mem)
	}
	return out, nil
}

type mockInventoryStore struct {
	items     []inventory.Item
	movements map[string][]inventory.Movement
	err       error
}

func (m *mockInventoryStore) ListItems(_ context.Context, f inventoryStore.ItemFilter) ([]inventory.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []inventory.Item
	for _, it := range m.items {
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *mockInventoryStore) GetItem(_ context.Context, id string) (inventory.Item, error) {
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return inventory.Item{}, sql.ErrNoRows
}

func (m *mockInventoryStore) ListMovements(_ context.Context, id string, limit int) ([]inventory.Movement, error) {
	mv := m.movements[id]
	if limit > 0 && len(mv) > limit {
		mv = mv[:limit]
	}
	return mv, nil
}

type mockPaymentStore struct {
	records []payment.Record
	err     error
}

func (m *mockPaymentStore) List(_ context.Context, f paymentStore.ListFilter) ([]payment.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []payment.Record
	for _, r := range m.records {
		if f.SubjectID != "" && r.SubjectID != f.SubjectID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type mockPreferenceStore struct {
	values map[string]string
}

func (m *mockPreferenceStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

type mockEngineObserver struct {
	mu   sync.Mutex
	runs map[string]int
}

func (m *mockEngineObserver) EngineRun(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = map[string]int{}
	}
	if err == nil {
		m.runs[op]++
	}
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func mark(student, class string, d int, status string) attendance.Record {
	return attendance.Record{ID: student + "-" + class + "-" + strconv.Itoa(d), StudentID: student, ClassID: class, Date: day(d), Status: status}
}
