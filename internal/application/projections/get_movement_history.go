package projections

import (
	"context"
	"fmt"

	"dojo/internal/domain/inventory"
	"dojo/internal/domain/stats"
)

// GetMovementHistoryQuery carries input for the stock ledger projection.
type GetMovementHistoryQuery struct {
	ItemID string
	Limit  int // <= 0 returns the whole ledger
}

// GetMovementHistoryDeps holds dependencies for the stock ledger projection.
type GetMovementHistoryDeps struct {
	MovementStore MovementStore
	Metrics       EngineObserver
}

// MovementHistoryResult is one item's ledger with totals.
type MovementHistoryResult struct {
	Item      ItemStatus           `json:"item"`
	Movements []inventory.Movement `json:"movements"` // newest first
	Summary   stats.MovementStats  `json:"summary"`
}

// QueryGetMovementHistory returns an item's movements and their totals.
// The summary covers only the returned movements.
func QueryGetMovementHistory(ctx context.Context, query GetMovementHistoryQuery, deps GetMovementHistoryDeps) (MovementHistoryResult, error) {
	item, err := deps.MovementStore.GetItem(ctx, query.ItemID)
	if err != nil {
		return MovementHistoryResult{}, fmt.Errorf("get item %s: %w", query.ItemID, err)
	}
	movements, err := deps.MovementStore.ListMovements(ctx, query.ItemID, query.Limit)
	if err != nil {
		return MovementHistoryResult{}, fmt.Errorf("list movements: %w", err)
	}
	if movements == nil {
		movements = []inventory.Movement{}
	}

	status, err := stats.ClassifyStockStatus(item)
	if err != nil {
		return MovementHistoryResult{}, err
	}
	summary, err := stats.AggregateMovements(movements)
	observe(deps.Metrics, "aggregate_movements", err)
	if err != nil {
		return MovementHistoryResult{}, err
	}

	return MovementHistoryResult{
		Item:      ItemStatus{Item: item, StockStatus: status},
		Movements: movements,
		Summary:   summary,
	}, nil
}
