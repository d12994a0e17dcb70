package projections

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/inventory"
	"dojo/internal/domain/stats"
)

func inventoryFixture() *mockInventoryStore {
	return &mockInventoryStore{
		items: []inventory.Item{
			{ID: "gi-a1", Name: "Gi A1", Category: "gi", CurrentStock: 0, MinStockLevel: 2, MaxStockLevel: 10, UnitCost: 5000},
			{ID: "gi-a2", Name: "Gi A2", Category: "gi", CurrentStock: 6, MinStockLevel: 2, MaxStockLevel: 10, UnitCost: 5000},
			{ID: "belt-w", Name: "White belt", Category: "belt", CurrentStock: 1, MinStockLevel: 3, MaxStockLevel: 20, UnitCost: 700},
			{ID: "water", Name: "Water", Category: "drinks", CurrentStock: 24, MinStockLevel: 6, MaxStockLevel: 24, UnitCost: 100},
		},
		movements: map[string][]inventory.Movement{
			"gi-a2": {
				{ID: "m3", InventoryID: "gi-a2", Type: inventory.MovementSale, Quantity: 2},
				{ID: "m2", InventoryID: "gi-a2", Type: inventory.MovementSale, Quantity: 2},
				{ID: "m1", InventoryID: "gi-a2", Type: inventory.MovementPurchase, Quantity: 10, UnitCost: 5000},
			},
		},
	}
}

func TestQueryGetInventoryStats(t *testing.T) {
	res, err := QueryGetInventoryStats(context.Background(), GetInventoryStatsQuery{},
		GetInventoryStatsDeps{InventoryStore: inventoryFixture()})
	if err != nil {
		t.Fatalf("QueryGetInventoryStats: %v", err)
	}
	s := res.Stats
	if s.TotalItems != 4 || s.OutOfStockCount != 1 || s.LowStockCount != 1 || s.OverstockedCount != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.TotalValue != 6*5000+700+24*100 {
		t.Errorf("TotalValue = %d", s.TotalValue)
	}
	wantStatus := []stats.StockStatus{stats.StockOutOfStock, stats.StockInStock, stats.StockLow, stats.StockOverstocked}
	for i, w := range wantStatus {
		if res.Items[i].StockStatus != w {
			t.Errorf("item %s status = %s, want %s", res.Items[i].ID, res.Items[i].StockStatus, w)
		}
	}
	if len(res.NeedsReorder) != 2 || res.NeedsReorder[0].ID != "gi-a1" || res.NeedsReorder[1].ID != "belt-w" {
		t.Errorf("NeedsReorder = %+v", res.NeedsReorder)
	}
}

func TestQueryGetInventoryStats_Category(t *testing.T) {
	res, err := QueryGetInventoryStats(context.Background(), GetInventoryStatsQuery{Category: "gi"},
		GetInventoryStatsDeps{InventoryStore: inventoryFixture()})
	if err != nil {
		t.Fatalf("QueryGetInventoryStats: %v", err)
	}
	if res.Stats.TotalItems != 2 || res.Stats.Categories["gi"] != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestQueryGetInventoryStats_NegativeStock(t *testing.T) {
	store := &mockInventoryStore{items: []inventory.Item{{ID: "x", CurrentStock: -1}}}
	_, err := QueryGetInventoryStats(context.Background(), GetInventoryStatsQuery{}, GetInventoryStatsDeps{InventoryStore: store})
	if !errors.Is(err, domainerr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestQueryGetMovementHistory(t *testing.T) {
	res, err := QueryGetMovementHistory(context.Background(), GetMovementHistoryQuery{ItemID: "gi-a2"},
		GetMovementHistoryDeps{MovementStore: inventoryFixture()})
	if err != nil {
		t.Fatalf("QueryGetMovementHistory: %v", err)
	}
	if res.Item.StockStatus != stats.StockInStock || len(res.Movements) != 3 {
		t.Errorf("res = %+v", res)
	}
	if res.Summary.NetQuantity != 6 || res.Summary.ByType[inventory.MovementSale].Quantity != 4 {
		t.Errorf("summary = %+v", res.Summary)
	}

	limited, err := QueryGetMovementHistory(context.Background(), GetMovementHistoryQuery{ItemID: "gi-a2", Limit: 1},
		GetMovementHistoryDeps{MovementStore: inventoryFixture()})
	if err != nil || len(limited.Movements) != 1 {
		t.Errorf("limited = %+v, %v", limited, err)
	}

	empty, err := QueryGetMovementHistory(context.Background(), GetMovementHistoryQuery{ItemID: "water"},
		GetMovementHistoryDeps{MovementStore: inventoryFixture()})
	if err != nil || empty.Movements == nil || len(empty.Movements) != 0 {
		t.Errorf("empty ledger = %+v, %v", empty, err)
	}
}

func TestQueryGetMovementHistory_MissingItem(t *testing.T) {
	_, err := QueryGetMovementHistory(context.Background(), GetMovementHistoryQuery{ItemID: "nope"},
		GetMovementHistoryDeps{MovementStore: inventoryFixture()})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}
