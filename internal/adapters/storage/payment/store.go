package payment

import (
	"context"

	domain "dojo/internal/domain/payment"
)

// Store persists payment records.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Record, error)
	GetByExternalReference(ctx context.Context, ref string) (domain.Record, error)
	Save(ctx context.Context, value domain.Record) error
	// SaveRefund writes r's refund state only if the stored refunded amount
	// is still readRefunded. Returns domain.ErrRefundChanged otherwise.
	SaveRefund(ctx context.Context, r domain.Record, readRefunded int64) error
	List(ctx context.Context, filter ListFilter) ([]domain.Record, error)
}

// ListFilter narrows List. Empty fields match everything; Limit 0 means no limit.
type ListFilter struct {
	SubjectID string
	Status    string
	Limit     int
}
