package inventory

import (
	"context"

	domain "dojo/internal/domain/inventory"
)

// Store persists inventory items and their stock-movement ledger.
type Store interface {
	GetItem(ctx context.Context, id string) (domain.Item, error)
	SaveItem(ctx context.Context, item domain.Item) error
	ListItems(ctx context.Context, filter ItemFilter) ([]domain.Item, error)

	// RecordMovement appends m to the ledger and stores item's new stock
	// level in one transaction, provided the stored stock still equals
	// readStock. Otherwise it returns domain.ErrStockChanged.
	// PRE: item.ID == m.InventoryID; both validated
	// POST: both rows written or neither
	RecordMovement(ctx context.Context, item domain.Item, m domain.Movement, readStock int) error
	ListMovements(ctx context.Context, inventoryID string, limit int) ([]domain.Movement, error)
}

// ItemFilter narrows ListItems. Empty fields match everything.
type ItemFilter struct {
	Category string
	Status   string
}
