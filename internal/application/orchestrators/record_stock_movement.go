package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dojo/internal/domain/inventory"
	"dojo/internal/domain/stats"
)

// RecordStockMovementInput is one ledger entry against an item.
type RecordStockMovementInput struct {
	ItemID        string `validate:"required"`
	Type          string `validate:"required,oneof=purchase sale adjustment return damage"`
	Quantity      int    `validate:"gte=0"`
	UnitCost      int64  `validate:"gte=0"`
	ReferenceKind string `validate:"omitempty,oneof=manual purchase_order sale"`
	ReferenceID   string
	Notes         string `validate:"max=500"`
}

// RecordStockMovementDeps holds dependencies for RecordStockMovement.
type RecordStockMovementDeps struct {
	InventoryStore InventoryStore
	// AlertRecipients receive a low-stock email; empty disables alerts.
	AlertRecipients []string
	ReplyTo         string
	Email           EmailDeps
	GenerateID      func() string
	Now             func() time.Time
}

// StockMovementResult is the persisted movement and the item after it.
type StockMovementResult struct {
	Item           inventory.Item     `json:"item"`
	Movement       inventory.Movement `json:"movement"`
	PreviousStatus stats.StockStatus  `json:"previous_status"`
	StockStatus    stats.StockStatus  `json:"stock_status"`
	Alert          *Delivery          `json:"alert,omitempty"`
}

// stockAttempts bounds how often a movement is recomputed after losing a
// race with another writer on the same item.
const stockAttempts = 5

// ExecuteRecordStockMovement appends a movement, recomputes the item's stock
// and persists both. The write only lands if the stock is unchanged since it
// was read; otherwise the item is read again and the movement reapplied.
// When the item newly drops to low or out of stock, staff are emailed; a
// failed alert is queued and never fails the movement.
// PRE: the item exists
// POST: item stock = stats.ApplyStockMovement(item, movement).CurrentStock
// for the item as stored immediately before the write
func ExecuteRecordStockMovement(ctx context.Context, input RecordStockMovementInput, deps RecordStockMovementDeps) (StockMovementResult, error) {
	if err := validateInput(input); err != nil {
		return StockMovementResult{}, err
	}

	kind := input.ReferenceKind
	if kind == "" {
		kind = inventory.ReferenceManual
	}
	mv := inventory.Movement{
		ID:          idOrUUID(deps.GenerateID),
		InventoryID: input.ItemID,
		Type:        input.Type,
		Quantity:    input.Quantity,
		UnitCost:    input.UnitCost,
		TotalCost:   input.UnitCost * int64(input.Quantity),
		Reference:   inventory.Reference{Kind: kind, ID: input.ReferenceID},
		Notes:       input.Notes,
		CreatedAt:   nowOrUTC(deps.Now),
	}
	if err := mv.Validate(); err != nil {
		return StockMovementResult{}, invalid(err)
	}

	var res StockMovementResult
	var err error
	for attempt := 1; ; attempt++ {
		res, err = applyMovement(ctx, mv, deps.InventoryStore)
		if !errors.Is(err, inventory.ErrStockChanged) || attempt == stockAttempts {
			break
		}
		slog.Warn("stock_movement_retry", "item_id", mv.InventoryID, "attempt", attempt, "error", err)
	}
	if err != nil {
		return StockMovementResult{}, err
	}

	if needsAlert(res.PreviousStatus, res.StockStatus) && len(deps.AlertRecipients) > 0 {
		d, err := sendStockAlert(ctx, res.Item, res.StockStatus, deps)
		if err != nil {
			slog.Error("stock_alert_failed", "item_id", res.Item.ID, "error", err)
		} else {
			res.Alert = &d
		}
	}
	return res, nil
}

// applyMovement reads the item, applies mv and writes both guarded on the
// stock that was read.
func applyMovement(ctx context.Context, mv inventory.Movement, store InventoryStore) (StockMovementResult, error) {
	item, err := store.GetItem(ctx, mv.InventoryID)
	if err != nil {
		return StockMovementResult{}, fmt.Errorf("get item %s: %w", mv.InventoryID, err)
	}
	before, err := stats.ClassifyStockStatus(item)
	if err != nil {
		return StockMovementResult{}, err
	}
	updated, err := stats.ApplyStockMovement(item, mv)
	if err != nil {
		return StockMovementResult{}, err
	}
	after, err := stats.ClassifyStockStatus(updated)
	if err != nil {
		return StockMovementResult{}, err
	}

	if err := store.RecordMovement(ctx, updated, mv, item.CurrentStock); err != nil {
		return StockMovementResult{}, fmt.Errorf("record movement: %w", err)
	}
	slog.Info("stock_movement_recorded", "item_id", item.ID, "type", mv.Type, "quantity", mv.Quantity,
		"stock_before", item.CurrentStock, "stock_after", updated.CurrentStock, "status", after)
	return StockMovementResult{Item: updated, Movement: mv, PreviousStatus: before, StockStatus: after}, nil
}

// needsAlert reports a transition into low or out of stock.
func needsAlert(before, after stats.StockStatus) bool {
	if before == after {
		return false
	}
	return after == stats.StockLow || after == stats.StockOutOfStock
}

func sendStockAlert(ctx context.Context, item inventory.Item, status stats.StockStatus, deps RecordStockMovementDeps) (Delivery, error) {
	label := "Low stock"
	if status == stats.StockOutOfStock {
		label = "Out of stock"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", label, item.Name)
	fmt.Fprintf(&b, "| Item | Category | In stock | Reorder at |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %d | %d |\n", escapeCell(item.Name), escapeCell(item.Category), item.CurrentStock, item.MinStockLevel)

	req, err := markdownEmail(deps.AlertRecipients, deps.ReplyTo, label+": "+item.Name, b.String())
	if err != nil {
		return Delivery{}, err
	}
	return deliverEmail(ctx, req, deps.Email)
}

// escapeCell keeps user text from breaking a markdown table row.
func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
