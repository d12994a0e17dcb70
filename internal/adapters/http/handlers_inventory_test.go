package web

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"dojo/internal/application/orchestrators"
	"dojo/internal/application/projections"
	"dojo/internal/domain/inventory"
	"dojo/internal/domain/stats"
)

func seedItems(t *testing.T, env *testEnv) {
	t.Helper()
	items := []inventory.Item{
		{ID: "gi-a2", Name: "Gi A2", Category: "gi", CurrentStock: 5, MinStockLevel: 3, MaxStockLevel: 20, UnitCost: 6000, SellingPrice: 9000, Status: inventory.StatusActive},
		{ID: "belt-w", Name: "White belt", Category: "belt", CurrentStock: 0, MinStockLevel: 2, MaxStockLevel: 30, UnitCost: 800, SellingPrice: 1500, Status: inventory.StatusActive},
		{ID: "water", Name: "Water", Category: "drinks", CurrentStock: 48, MinStockLevel: 12, MaxStockLevel: 48, UnitCost: 150, SellingPrice: 300, Status: inventory.StatusActive},
	}
	for _, it := range items {
		if err := env.stores.InventoryStore.SaveItem(context.Background(), it); err != nil {
			t.Fatalf("save item %s: %v", it.ID, err)
		}
	}
}

func TestInventoryStats(t *testing.T) {
	env := newTestEnv(t)
	seedItems(t, env)

	rec := env.do(http.MethodGet, "/api/inventory", nil)
	wantStatus(t, rec, http.StatusOK)
	res := decode[projections.InventoryStatsResult](t, rec)
	if res.Stats.TotalItems != 3 || res.Stats.OutOfStockCount != 1 || res.Stats.OverstockedCount != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(res.NeedsReorder) != 1 || res.NeedsReorder[0].ID != "belt-w" {
		t.Errorf("needs reorder = %+v", res.NeedsReorder)
	}

	rec = env.do(http.MethodGet, "/api/inventory?category=gi", nil)
	wantStatus(t, rec, http.StatusOK)
	if res := decode[projections.InventoryStatsResult](t, rec); res.Stats.TotalItems != 1 {
		t.Errorf("gi items = %d, want 1", res.Stats.TotalItems)
	}
}

func TestRecordMovement_AlertsOnLowStock(t *testing.T) {
	env := newTestEnv(t)
	seedItems(t, env)

	rec := env.do(http.MethodPost, "/api/inventory/gi-a2/movements", recordMovementRequest{Type: inventory.MovementSale, Quantity: 3})
	wantStatus(t, rec, http.StatusCreated)
	res := decode[orchestrators.StockMovementResult](t, rec)
	if res.Item.CurrentStock != 2 {
		t.Errorf("CurrentStock = %d, want 2", res.Item.CurrentStock)
	}
	if res.PreviousStatus != stats.StockInStock || res.StockStatus != stats.StockLow {
		t.Errorf("status %s -> %s, want in_stock -> low_stock", res.PreviousStatus, res.StockStatus)
	}
	if res.Alert == nil || !res.Alert.Sent {
		t.Fatalf("alert = %+v, want sent", res.Alert)
	}
	if env.sender.count() != 1 {
		t.Fatalf("sent = %d, want 1", env.sender.count())
	}
	if msg := env.sender.sent[0]; msg.To[0] != "coach@dojo.test" || !strings.Contains(msg.Subject, "Gi A2") {
		t.Errorf("alert message = %+v", msg)
	}

	// Still low: no second alert.
	wantStatus(t, env.do(http.MethodPost, "/api/inventory/gi-a2/movements", recordMovementRequest{Type: inventory.MovementSale, Quantity: 1}), http.StatusCreated)
	if env.sender.count() != 1 {
		t.Errorf("sent = %d after staying low, want 1", env.sender.count())
	}
}

func TestRecordMovement_Rejects(t *testing.T) {
	env := newTestEnv(t)
	seedItems(t, env)

	wantStatus(t, env.do(http.MethodPost, "/api/inventory/gi-a2/movements", recordMovementRequest{Type: "theft", Quantity: 1}), http.StatusBadRequest)
	wantStatus(t, env.do(http.MethodPost, "/api/inventory/gi-a2/movements", recordMovementRequest{Type: inventory.MovementSale, Quantity: -1}), http.StatusBadRequest)
	wantStatus(t, env.do(http.MethodPost, "/api/inventory/nope/movements", recordMovementRequest{Type: inventory.MovementSale, Quantity: 1}), http.StatusNotFound)
}

func TestMovementHistory(t *testing.T) {
	env := newTestEnv(t)
	seedItems(t, env)
	for _, m := range []recordMovementRequest{
		{Type: inventory.MovementPurchase, Quantity: 10, UnitCost: 5500},
		{Type: inventory.MovementSale, Quantity: 4},
	} {
		wantStatus(t, env.do(http.MethodPost, "/api/inventory/gi-a2/movements", m), http.StatusCreated)
	}

	rec := env.do(http.MethodGet, "/api/inventory/gi-a2/movements", nil)
	wantStatus(t, rec, http.StatusOK)
	res := decode[projections.MovementHistoryResult](t, rec)
	if len(res.Movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(res.Movements))
	}
	if res.Item.CurrentStock != 11 {
		t.Errorf("CurrentStock = %d, want 11", res.Item.CurrentStock)
	}
	if res.Summary.NetQuantity != 6 {
		t.Errorf("NetQuantity = %d, want 6", res.Summary.NetQuantity)
	}

	rec = env.do(http.MethodGet, "/api/inventory/gi-a2/movements?limit=1", nil)
	wantStatus(t, rec, http.StatusOK)
	if res := decode[projections.MovementHistoryResult](t, rec); len(res.Movements) != 1 {
		t.Errorf("limited movements = %d, want 1", len(res.Movements))
	}

	wantStatus(t, env.do(http.MethodGet, "/api/inventory/nope/movements", nil), http.StatusNotFound)
}
