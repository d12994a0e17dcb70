package stats

import (
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/inventory"
)

// InventoryStats summarises a snapshot of inventory items.
type InventoryStats struct {
	TotalItems       int            `json:"total_items"`
	LowStockCount    int            `json:"low_stock_count"`
	OutOfStockCount  int            `json:"out_of_stock_count"`
	OverstockedCount int            `json:"overstocked_count"`
	TotalValue       int64          `json:"total_value"`
	Categories       map[string]int `json:"categories"`
}

// AggregateInventory counts items per stock status and category and values
// the stock on hand at unit cost.
// PRE: every item has CurrentStock >= 0
// POST: TotalValue == Σ CurrentStock*UnitCost
func AggregateInventory(items []inventory.Item) (InventoryStats, error) {
	out := InventoryStats{
		TotalItems: len(items),
		Categories: make(map[string]int),
	}
	for _, item := range items {
		status, err := ClassifyStockStatus(item)
		if err != nil {
			return InventoryStats{}, err
		}
		switch status {
		case StockLow:
			out.LowStockCount++
		case StockOutOfStock:
			out.OutOfStockCount++
		case StockOverstocked:
			out.OverstockedCount++
		}
		out.TotalValue += int64(item.CurrentStock) * item.UnitCost
		out.Categories[item.Category]++
	}
	return out, nil
}

// StockDelta returns the change in on-hand quantity a movement causes for an
// item currently holding current units.
func StockDelta(current int, m inventory.Movement) (int, error) {
	switch m.Type {
	case inventory.MovementPurchase, inventory.MovementReturn:
		return m.Quantity, nil
	case inventory.MovementSale, inventory.MovementDamage:
		return -m.Quantity, nil
	case inventory.MovementAdjustment:
		return m.Quantity - current, nil
	}
	return 0, domainerr.Invalidf("unknown movement type %q", m.Type)
}

// ApplyStockMovement returns a copy of item with the movement applied.
// The input item is never modified. An active item that reaches zero becomes
// out_of_stock and an out_of_stock item that is restocked becomes active;
// discontinued items keep their status.
// PRE: item.CurrentStock >= 0; movement.Quantity >= 0
// POST: result.CurrentStock == max(0, item.CurrentStock + delta)
func ApplyStockMovement(item inventory.Item, m inventory.Movement) (inventory.Item, error) {
	if item.CurrentStock < 0 {
		return inventory.Item{}, domainerr.Invalidf("item %q has negative stock %d", item.ID, item.CurrentStock)
	}
	if m.Quantity < 0 {
		return inventory.Item{}, domainerr.Invalidf("movement quantity %d is negative", m.Quantity)
	}
	delta, err := StockDelta(item.CurrentStock, m)
	if err != nil {
		return inventory.Item{}, err
	}
	next := item
	next.CurrentStock = max(0, item.CurrentStock+delta)
	switch {
	case next.Status == inventory.StatusActive && next.CurrentStock == 0:
		next.Status = inventory.StatusOutOfStock
	case next.Status == inventory.StatusOutOfStock && next.CurrentStock > 0:
		next.Status = inventory.StatusActive
	}
	return next, nil
}

// MovementTotal accumulates movements of one type.
type MovementTotal struct {
	Count    int   `json:"count"`
	Quantity int   `json:"quantity"`
	Cost     int64 `json:"cost"`
}

// MovementStats summarises a stock-movement ledger.
type MovementStats struct {
	ByType map[string]MovementTotal `json:"by_type"`
	// NetQuantity is inbound minus outbound; adjustments are absolute and excluded.
	NetQuantity int `json:"net_quantity"`
}

// AggregateMovements totals a ledger by movement type.
func AggregateMovements(movements []inventory.Movement) (MovementStats, error) {
	out := MovementStats{ByType: make(map[string]MovementTotal)}
	for _, m := range movements {
		if !inventory.ValidMovementType(m.Type) {
			return MovementStats{}, domainerr.Invalidf("unknown movement type %q", m.Type)
		}
		t := out.ByType[m.Type]
		t.Count++
		t.Quantity += m.Quantity
		t.Cost += m.Cost()
		out.ByType[m.Type] = t

		switch m.Type {
		case inventory.MovementPurchase, inventory.MovementReturn:
			out.NetQuantity += m.Quantity
		case inventory.MovementSale, inventory.MovementDamage:
			out.NetQuantity -= m.Quantity
		}
	}
	return out, nil
}
