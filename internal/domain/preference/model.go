// Package preference holds per-staff view settings for the payment history.
package preference

import "errors"

// View modes for payment history.
const (
	ViewTable   = "table"
	ViewGrouped = "grouped"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sortable payment columns.
const (
	ColumnDate        = "payment_date"
	ColumnAmount      = "amount"
	ColumnStatus      = "status"
	ColumnDescription = "description"
)

// Domain errors
var (
	ErrMissingOwner     = errors.New("preferences must belong to a staff member")
	ErrInvalidViewMode  = errors.New("view mode must be 'table' or 'grouped'")
	ErrInvalidSortDir   = errors.New("sort direction must be 'asc' or 'desc'")
	ErrInvalidSortField = errors.New("unknown sort column")
)

// ViewPreferences controls how payment history is displayed for one owner.
type ViewPreferences struct {
	OwnerID    string `json:"owner_id"`
	ViewMode   string `json:"view_mode"`
	SortColumn string `json:"sort_column"`
	SortDir    string `json:"sort_dir"`
}

// Default returns the preferences used before an owner saves any.
func Default(ownerID string) ViewPreferences {
	return ViewPreferences{
		OwnerID:    ownerID,
		ViewMode:   ViewGrouped,
		SortColumn: ColumnDate,
		SortDir:    SortDesc,
	}
}

// Validate checks if the preferences are usable.
// PRE: ViewPreferences is initialized
// POST: Returns error if any field holds an unknown value
func (p *ViewPreferences) Validate() error {
	if p.OwnerID == "" {
		return ErrMissingOwner
	}
	if p.ViewMode != ViewTable && p.ViewMode != ViewGrouped {
		return ErrInvalidViewMode
	}
	if p.SortDir != SortAsc && p.SortDir != SortDesc {
		return ErrInvalidSortDir
	}
	switch p.SortColumn {
	case ColumnDate, ColumnAmount, ColumnStatus, ColumnDescription:
	default:
		return ErrInvalidSortField
	}
	return nil
}
