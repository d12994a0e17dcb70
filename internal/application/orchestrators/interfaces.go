package orchestrators

import (
	"context"

	"dojo/internal/adapters/gateway"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/inventory"
	"dojo/internal/domain/member"
	"dojo/internal/domain/membership"
	"dojo/internal/domain/outbox"
	"dojo/internal/domain/payment"
)

// AttendanceStore is the attendance persistence the write paths need.
type AttendanceStore interface {
	GetByID(ctx context.Context, id string) (attendance.Record, error)
	Save(ctx context.Context, r attendance.Record) error
}

// InventoryStore reads an item and appends to its ledger.
type InventoryStore interface {
	GetItem(ctx context.Context, id string) (inventory.Item, error)
	// RecordMovement persists the updated item and the movement atomically,
	// failing with inventory.ErrStockChanged when the stored stock is no
	// longer readStock.
	RecordMovement(ctx context.Context, item inventory.Item, m inventory.Movement, readStock int) error
}

// PaymentStore persists payment records.
type PaymentStore interface {
	GetByID(ctx context.Context, id string) (payment.Record, error)
	GetByExternalReference(ctx context.Context, ref string) (payment.Record, error)
	Save(ctx context.Context, r payment.Record) error
	// SaveRefund writes r's refund state, failing with
	// payment.ErrRefundChanged when the stored refunded amount is no longer
	// readRefunded.
	SaveRefund(ctx context.Context, r payment.Record, readRefunded int64) error
}

// MembershipStore reads plans and writes assignments.
type MembershipStore interface {
	GetPlan(ctx context.Context, id string) (membership.Plan, error)
	SaveAssignment(ctx context.Context, a membership.Assignment) error
}

// MemberLookup fetches a member for charging.
type MemberLookup interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// MemberDirectory reads and writes the member roster.
type MemberDirectory interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	GetByEmail(ctx context.Context, email string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// PreferenceWriter stores serialized view preferences.
type PreferenceWriter interface {
	Set(ctx context.Context, key, value string) error
}

// OutboxStore queues side effects for the retry worker.
type OutboxStore interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// GatewayObserver counts gateway outcomes.
type GatewayObserver interface {
	GatewayCall(operation string, ok bool)
}

// OutboxObserver counts delivery outcomes.
type OutboxObserver interface {
	OutboxResult(ok bool)
}

// Charger is the subset of gateway.Gateway used by the assignment wizard.
type Charger interface {
	Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.Result, error)
}

// Refunder is the subset of gateway.Gateway used for refunds.
type Refunder interface {
	Refund(ctx context.Context, req gateway.RefundRequest) (gateway.Result, error)
}
