package stats

import (
	"errors"
	"testing"

	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/inventory"
)

// TestAggregateInventory verifies counts, value and category histogram.
func TestAggregateInventory(t *testing.T) {
	items := []inventory.Item{
		{ID: "1", Category: "gi", CurrentStock: 0, MinStockLevel: 2, MaxStockLevel: 20, UnitCost: 6000},
		{ID: "2", Category: "gi", CurrentStock: 2, MinStockLevel: 2, MaxStockLevel: 20, UnitCost: 6000},
		{ID: "3", Category: "belt", CurrentStock: 10, MinStockLevel: 3, MaxStockLevel: 30, UnitCost: 800},
		{ID: "4", Category: "drinks", CurrentStock: 48, MinStockLevel: 12, MaxStockLevel: 48, UnitCost: 150},
	}
	got, err := AggregateInventory(items)
	if err != nil {
		t.Fatalf("AggregateInventory() error = %v", err)
	}
	if got.TotalItems != 4 {
		t.Errorf("TotalItems = %d, want 4", got.TotalItems)
	}
	if got.OutOfStockCount != 1 || got.LowStockCount != 1 || got.OverstockedCount != 1 {
		t.Errorf("counts = out %d low %d over %d", got.OutOfStockCount, got.LowStockCount, got.OverstockedCount)
	}
	// 0*6000 + 2*6000 + 10*800 + 48*150
	if want := int64(12000 + 8000 + 7200); got.TotalValue != want {
		t.Errorf("TotalValue = %d, want %d", got.TotalValue, want)
	}
	if got.Categories["gi"] != 2 || got.Categories["belt"] != 1 || got.Categories["drinks"] != 1 {
		t.Errorf("Categories = %v", got.Categories)
	}

	if _, err := AggregateInventory([]inventory.Item{{CurrentStock: -2}}); !errors.Is(err, domainerr.ErrInvalidInput) {
		t.Errorf("negative stock error = %v", err)
	}
}

// TestApplyStockMovement covers every movement type and the zero clamp.
func TestApplyStockMovement(t *testing.T) {
	tests := []struct {
		name  string
		stock int
		mv    inventory.Movement
		want  int
	}{
		{"purchase adds", 5, inventory.Movement{Type: inventory.MovementPurchase, Quantity: 10}, 15},
		{"return adds", 5, inventory.Movement{Type: inventory.MovementReturn, Quantity: 1}, 6},
		{"sale subtracts", 5, inventory.Movement{Type: inventory.MovementSale, Quantity: 3}, 2},
		{"damage subtracts", 5, inventory.Movement{Type: inventory.MovementDamage, Quantity: 5}, 0},
		{"oversell clamps to zero", 5, inventory.Movement{Type: inventory.MovementSale, Quantity: 10}, 0},
		{"adjustment sets absolute level up", 5, inventory.Movement{Type: inventory.MovementAdjustment, Quantity: 12}, 12},
		{"adjustment sets absolute level down", 5, inventory.Movement{Type: inventory.MovementAdjustment, Quantity: 1}, 1},
		{"adjustment to zero", 5, inventory.Movement{Type: inventory.MovementAdjustment, Quantity: 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := inventory.Item{ID: "i1", Name: "Rash guard", CurrentStock: tt.stock}
			got, err := ApplyStockMovement(item, tt.mv)
			if err != nil {
				t.Fatalf("ApplyStockMovement() error = %v", err)
			}
			if got.CurrentStock != tt.want {
				t.Errorf("CurrentStock = %d, want %d", got.CurrentStock, tt.want)
			}
			if item.CurrentStock != tt.stock {
				t.Errorf("input item mutated: CurrentStock = %d", item.CurrentStock)
			}
			if got.Name != item.Name || got.ID != item.ID {
				t.Errorf("non-stock fields changed: %+v", got)
			}
		})
	}
}

// TestApplyStockMovement_Status keeps the lifecycle status in step with stock.
func TestApplyStockMovement_Status(t *testing.T) {
	sale := inventory.Movement{Type: inventory.MovementSale, Quantity: 5}
	restock := inventory.Movement{Type: inventory.MovementPurchase, Quantity: 4}
	tests := []struct {
		name   string
		stock  int
		status string
		mv     inventory.Movement
		want   string
	}{
		{"active sold out", 5, inventory.StatusActive, sale, inventory.StatusOutOfStock},
		{"active partial sale", 8, inventory.StatusActive, sale, inventory.StatusActive},
		{"out of stock restocked", 0, inventory.StatusOutOfStock, restock, inventory.StatusActive},
		{"discontinued sold out", 5, inventory.StatusDiscontinued, sale, inventory.StatusDiscontinued},
		{"discontinued restocked", 0, inventory.StatusDiscontinued, restock, inventory.StatusDiscontinued},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := inventory.Item{ID: "i1", CurrentStock: tt.stock, Status: tt.status}
			got, err := ApplyStockMovement(item, tt.mv)
			if err != nil {
				t.Fatalf("ApplyStockMovement() error = %v", err)
			}
			if got.Status != tt.want {
				t.Errorf("Status = %s, want %s", got.Status, tt.want)
			}
			if item.Status != tt.status {
				t.Errorf("input item mutated: Status = %s", item.Status)
			}
		})
	}
}

// TestApplyStockMovement_InvalidInput rejects bad movements.
func TestApplyStockMovement_InvalidInput(t *testing.T) {
	item := inventory.Item{CurrentStock: 3}
	cases := []inventory.Movement{
		{Type: "theft", Quantity: 1},
		{Type: inventory.MovementSale, Quantity: -1},
	}
	for _, mv := range cases {
		if _, err := ApplyStockMovement(item, mv); !errors.Is(err, domainerr.ErrInvalidInput) {
			t.Errorf("ApplyStockMovement(%+v) error = %v, want ErrInvalidInput", mv, err)
		}
	}
	if _, err := ApplyStockMovement(inventory.Item{CurrentStock: -1}, inventory.Movement{Type: inventory.MovementPurchase, Quantity: 1}); !errors.Is(err, domainerr.ErrInvalidInput) {
		t.Errorf("negative item stock error = %v", err)
	}
}

// TestAggregateMovements totals a ledger.
func TestAggregateMovements(t *testing.T) {
	ledger := []inventory.Movement{
		{Type: inventory.MovementPurchase, Quantity: 20, UnitCost: 500},
		{Type: inventory.MovementSale, Quantity: 4},
		{Type: inventory.MovementSale, Quantity: 3},
		{Type: inventory.MovementDamage, Quantity: 1},
		{Type: inventory.MovementReturn, Quantity: 2},
		{Type: inventory.MovementAdjustment, Quantity: 9},
	}
	got, err := AggregateMovements(ledger)
	if err != nil {
		t.Fatalf("AggregateMovements() error = %v", err)
	}
	if got.ByType[inventory.MovementSale].Count != 2 || got.ByType[inventory.MovementSale].Quantity != 7 {
		t.Errorf("sales = %+v", got.ByType[inventory.MovementSale])
	}
	if got.ByType[inventory.MovementPurchase].Cost != 10000 {
		t.Errorf("purchase cost = %d, want 10000", got.ByType[inventory.MovementPurchase].Cost)
	}
	if got.NetQuantity != 20-7-1+2 {
		t.Errorf("NetQuantity = %d, want 14", got.NetQuantity)
	}
}
