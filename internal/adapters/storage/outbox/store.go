package outbox

import (
	"context"

	domain "dojo/internal/domain/outbox"
)

// Store persists queued side effects awaiting delivery.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns pending and retrying entries, oldest first.
	// PRE: limit > 0
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListFailed returns entries that exhausted their attempts, most recent first.
	// PRE: limit > 0
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)
}
