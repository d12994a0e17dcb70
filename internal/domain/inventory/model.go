package inventory

import (
	"errors"
	"strings"
	"time"
)

// Item status constants.
const (
	StatusActive       = "active"
	StatusDiscontinued = "discontinued"
	StatusOutOfStock   = "out_of_stock"
)

// Movement type constants.
const (
	MovementPurchase   = "purchase"
	MovementSale       = "sale"
	MovementAdjustment = "adjustment"
	MovementReturn     = "return"
	MovementDamage     = "damage"
)

// Reference kinds for a movement's origin.
const (
	ReferenceManual        = "manual"
	ReferencePurchaseOrder = "purchase_order"
	ReferenceSale          = "sale"
)

// Domain errors
var (
	ErrMissingName         = errors.New("item name cannot be empty")
	ErrNegativeStock       = errors.New("stock levels cannot be negative")
	ErrInvalidStockRange   = errors.New("max stock level must not be below min stock level")
	ErrInvalidItemStatus   = errors.New("status must be 'active', 'discontinued', or 'out_of_stock'")
	ErrMissingItem         = errors.New("movement must reference an inventory item")
	ErrInvalidMovementType = errors.New("movement type must be purchase, sale, adjustment, return, or damage")
	ErrNegativeQuantity    = errors.New("movement quantity cannot be negative")
	// ErrStockChanged means the stock level moved between read and write.
	ErrStockChanged = errors.New("stock level changed since it was read")
)

// Item is a stocked product (uniforms, gear, drinks).
type Item struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	CurrentStock  int    `json:"current_stock"`
	MinStockLevel int    `json:"min_stock_level"`
	MaxStockLevel int    `json:"max_stock_level"`
	UnitCost      int64  `json:"unit_cost"` // minor currency units
	SellingPrice  int64  `json:"selling_price"`
	Status        string `json:"status"`
}

// Reference identifies what caused a movement.
type Reference struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// Movement is an append-only ledger entry against an item.
type Movement struct {
	ID          string    `json:"id"`
	InventoryID string    `json:"inventory_id"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	UnitCost    int64     `json:"unit_cost,omitempty"`  // optional, zero when unknown
	TotalCost   int64     `json:"total_cost,omitempty"` // optional, zero when unknown
	Reference   Reference `json:"reference"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks if the Item has valid data.
// PRE: Item struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: CurrentStock >= 0
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrMissingName
	}
	if i.CurrentStock < 0 || i.MinStockLevel < 0 || i.MaxStockLevel < 0 {
		return ErrNegativeStock
	}
	if i.MaxStockLevel > 0 && i.MaxStockLevel < i.MinStockLevel {
		return ErrInvalidStockRange
	}
	switch i.Status {
	case StatusActive, StatusDiscontinued, StatusOutOfStock:
	default:
		return ErrInvalidItemStatus
	}
	return nil
}

// Validate checks if the Movement has valid data.
// PRE: Movement struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (m *Movement) Validate() error {
	if strings.TrimSpace(m.InventoryID) == "" {
		return ErrMissingItem
	}
	if !ValidMovementType(m.Type) {
		return ErrInvalidMovementType
	}
	if m.Quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// ValidMovementType reports whether t is a known movement type.
func ValidMovementType(t string) bool {
	switch t {
	case MovementPurchase, MovementSale, MovementAdjustment, MovementReturn, MovementDamage:
		return true
	}
	return false
}

// Cost returns the movement's total cost, deriving it from the unit cost when
// only that was recorded.
func (m Movement) Cost() int64 {
	if m.TotalCost != 0 {
		return m.TotalCost
	}
	return m.UnitCost * int64(m.Quantity)
}
