package projections

import (
	"context"
	"fmt"

	inventoryStore "dojo/internal/adapters/storage/inventory"
	"dojo/internal/domain/inventory"
	"dojo/internal/domain/stats"
)

// GetInventoryStatsQuery carries input for the inventory projection.
type GetInventoryStatsQuery struct {
	Category string // optional
	Status   string // optional item status (active, discontinued)
}

// GetInventoryStatsDeps holds dependencies for the inventory projection.
type GetInventoryStatsDeps struct {
	InventoryStore InventoryStore
	Metrics        EngineObserver
}

// ItemStatus pairs an item with its derived stock label.
type ItemStatus struct {
	inventory.Item
	StockStatus stats.StockStatus `json:"stock_status"`
}

// InventoryStatsResult is the inventory dashboard panel.
type InventoryStatsResult struct {
	Stats stats.InventoryStats `json:"stats"`
	Items []ItemStatus         `json:"items"`
	// NeedsReorder lists low and out-of-stock items in store order.
	NeedsReorder []ItemStatus `json:"needs_reorder"`
}

// QueryGetInventoryStats aggregates the current stock snapshot.
func QueryGetInventoryStats(ctx context.Context, query GetInventoryStatsQuery, deps GetInventoryStatsDeps) (InventoryStatsResult, error) {
	items, err := deps.InventoryStore.ListItems(ctx, inventoryStore.ItemFilter{
		Category: query.Category,
		Status:   query.Status,
	})
	if err != nil {
		return InventoryStatsResult{}, fmt.Errorf("list inventory: %w", err)
	}

	summary, err := stats.AggregateInventory(items)
	observe(deps.Metrics, "aggregate_inventory", err)
	if err != nil {
		return InventoryStatsResult{}, err
	}

	res := InventoryStatsResult{
		Stats:        summary,
		Items:        make([]ItemStatus, 0, len(items)),
		NeedsReorder: []ItemStatus{},
	}
	for _, item := range items {
		// AggregateInventory already rejected negative stock.
		status, _ := stats.ClassifyStockStatus(item)
		is := ItemStatus{Item: item, StockStatus: status}
		res.Items = append(res.Items, is)
		if status == stats.StockLow || status == stats.StockOutOfStock {
			res.NeedsReorder = append(res.NeedsReorder, is)
		}
	}
	return res, nil
}
