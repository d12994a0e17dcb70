package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"dojo/internal/adapters/email"
	attendanceStore "dojo/internal/adapters/storage/attendance"
	inventoryStore "dojo/internal/adapters/storage/inventory"
	memberStore "dojo/internal/adapters/storage/member"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/inventory"
	"dojo/internal/domain/member"
	"dojo/internal/domain/membership"
	"dojo/internal/domain/outbox"
	"dojo/internal/domain/payment"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// seqID returns ids id-1, id-2, ... in call order.
func seqID() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type mockAttendanceStore struct {
	records map[string]attendance.Record
	saveErr error
}

func newMockAttendanceStore(rs ...attendance.Record) *mockAttendanceStore {
	m := &mockAttendanceStore{records: map[string]attendance.Record{}}
	for _, r := range rs {
		m.records[r.ID] = r
	}
	return m
}

func (m *mockAttendanceStore) GetByID(_ context.Context, id string) (attendance.Record, error) {
	r, ok := m.records[id]
	if !ok {
		return attendance.Record{}, sql.ErrNoRows
	}
	return r, nil
}

func (m *mockAttendanceStore) Save(_ context.Context, r attendance.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[r.ID] = r
	return nil
}

// List implements projections.AttendanceStore for the risk report.
func (m *mockAttendanceStore) List(_ context.Context, f attendanceStore.ListFilter) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range m.records {
		if r.Date.Before(f.From) || r.Date.After(f.To) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockInventoryStore struct {
	items     map[string]inventory.Item
	movements []inventory.Movement
	recordErr error
}

func newMockInventoryStore(items ...inventory.Item) *mockInventoryStore {
	m := &mockInventoryStore{items: map[string]inventory.Item{}}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *mockInventoryStore) GetItem(_ context.Context, id string) (inventory.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return inventory.Item{}, sql.ErrNoRows
	}
	return it, nil
}

func (m *mockInventoryStore) RecordMovement(_ context.Context, item inventory.Item, mv inventory.Movement, readStock int) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	if m.items[item.ID].CurrentStock != readStock {
		return inventory.ErrStockChanged
	}
	m.items[item.ID] = item
	m.movements = append(m.movements, mv)
	return nil
}

func (m *mockInventoryStore) ListItems(_ context.Context, _ inventoryStore.ItemFilter) ([]inventory.Item, error) {
	var out []inventory.Item
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockPaymentStore struct {
	mu      sync.Mutex
	records map[string]payment.Record
	saves   int
}

func newMockPaymentStore(rs ...payment.Record) *mockPaymentStore {
	m := &mockPaymentStore{records: map[string]payment.Record{}}
	for _, r := range rs {
		m.records[r.ID] = r
	}
	return m
}

func (m *mockPaymentStore) GetByID(_ context.Context, id string) (payment.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return payment.Record{}, sql.ErrNoRows
	}
	return r, nil
}

func (m *mockPaymentStore) GetByExternalReference(_ context.Context, ref string) (payment.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ExternalReference == ref {
			return r, nil
		}
	}
	return payment.Record{}, sql.ErrNoRows
}

func (m *mockPaymentStore) Save(_ context.Context, r payment.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.records[r.ID] = r
	return nil
}

func (m *mockPaymentStore) SaveRefund(_ context.Context, r payment.Record, readRefunded int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[r.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if cur.RefundedAmount != readRefunded {
		return payment.ErrRefundChanged
	}
	cur.RefundedAmount, cur.Status = r.RefundedAmount, r.Status
	m.records[r.ID] = cur
	return nil
}

type mockMembershipStore struct {
	plans       map[string]membership.Plan
	assignments map[string]membership.Assignment
}

func (m *mockMembershipStore) GetPlan(_ context.Context, id string) (membership.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return membership.Plan{}, sql.ErrNoRows
	}
	return p, nil
}

func (m *mockMembershipStore) SaveAssignment(_ context.Context, a membership.Assignment) error {
	if m.assignments == nil {
		m.assignments = map[string]membership.Assignment{}
	}
	m.assignments[a.ID] = a
	return nil
}

type mockMemberStore struct {
	members map[string]member.Member
	saveErr error
}

func newMockMemberStore(ms ...member.Member) *mockMemberStore {
	m := &mockMemberStore{members: make(map[string]member.Member)}
	for _, mem := range ms {
		m.members[mem.ID] = mem
	}
	return m
}

func (m *mockMemberStore) GetByEmail(_ context.Context, email string) (member.Member, error) {
	for _, mem := range m.members {
		if member.NormalizeEmail(mem.Email) == member.NormalizeEmail(email) {
			return mem, nil
		}
	}
	return member.Member{}, sql.ErrNoRows
}

func (m *mockMemberStore) Save(_ context.Context, mem member.Member) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.members[mem.ID] = mem
	return nil
}

func (m *mockMemberStore) GetByID(_ context.Context, id string) (member.Member, error) {
	mem, ok := m.members[id]
	if !ok {
		return member.Member{}, sql.ErrNoRows
	}
	return mem, nil
}

// List implements projections.MemberStore for the risk report.
func (m *mockMemberStore) List(_ context.Context, f memberStore.ListFilter) ([]member.Member, error) {
	var out []member.Member
	for _, id := range f.IDs {
		if mem, ok := m.members[id]; ok {
			out = append(out, mem)
		}
	}
	return out, nil
}

type mockOutboxStore struct {
	entries map[string]outbox.Entry
	order   []string
	saveErr error
}

func newMockOutboxStore(es ...outbox.Entry) *mockOutboxStore {
	m := &mockOutboxStore{entries: map[string]outbox.Entry{}}
	for _, e := range es {
		m.entries[e.ID] = e
		m.order = append(m.order, e.ID)
	}
	return m
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, sql.ErrNoRows
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type mockSender struct {
	mu   sync.Mutex
	sent []email.SendRequest
	err  error
}

func (m *mockSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: fmt.Sprintf("msg-%d", len(m.sent)), SentAt: fixedTime}, nil
}

type mockObserver struct {
	mu      sync.Mutex
	gateway map[string][2]int // op -> [ok, failed]
	outbox  [2]int
}

func (m *mockObserver) GatewayCall(op string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gateway == nil {
		m.gateway = map[string][2]int{}
	}
	c := m.gateway[op]
	if ok {
		c[0]++
	} else {
		c[1]++
	}
	m.gateway[op] = c
}

func (m *mockObserver) OutboxResult(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.outbox[0]++
	} else {
		m.outbox[1]++
	}
}

var errBoom = errors.New("boom")
