package projections

import (
	"context"

	attendanceStore "dojo/internal/adapters/storage/attendance"
	inventoryStore "dojo/internal/adapters/storage/inventory"
	memberStore "dojo/internal/adapters/storage/member"
	paymentStore "dojo/internal/adapters/storage/payment"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/inventory"
	"dojo/internal/domain/member"
	"dojo/internal/domain/payment"
)

// AttendanceStore lists attendance marks for a date window.
type AttendanceStore interface {
	List(ctx context.Context, filter attendanceStore.ListFilter) ([]attendance.Record, error)
}

// MemberStore resolves member names for reports.
type MemberStore interface {
	List(ctx context.Context, filter memberStore.ListFilter) ([]member.Member, error)
}

// PaymentStore lists payments.
type PaymentStore interface {
	List(ctx context.Context, filter paymentStore.ListFilter) ([]payment.Record, error)
}

// PreferenceStore reads stored key/value settings.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// InventoryStore lists stocked items.
type InventoryStore interface {
	ListItems(ctx context.Context, filter inventoryStore.ItemFilter) ([]inventory.Item, error)
}

// MovementStore reads one item and its ledger.
type MovementStore interface {
	GetItem(ctx context.Context, id string) (inventory.Item, error)
	ListMovements(ctx context.Context, inventoryID string, limit int) ([]inventory.Movement, error)
}

// EngineObserver counts engine invocations. *perf.Metrics satisfies it.
type EngineObserver interface {
	EngineRun(operation string, err error)
}

func observe(m EngineObserver, op string, err error) {
	if m != nil {
		m.EngineRun(op, err)
	}
}
