package member

import (
	"errors"
	"strings"
)

// MaxNameLength bounds the display name.
const MaxNameLength = 100

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusArchived = "archived"
)

// Domain errors
var (
	ErrEmptyName       = errors.New("member name cannot be empty")
	ErrNameTooLong     = errors.New("member name cannot exceed 100 characters")
	ErrInvalidEmail    = errors.New("member email must be valid")
	ErrInvalidStatus   = errors.New("status must be 'active', 'inactive', or 'archived'")
	ErrAlreadyArchived = errors.New("member is already archived")
	ErrNotArchived     = errors.New("member is not archived")
)

// Member is a student or guardian-paid student enrolled at the academy.
// Attendance rows and payments refer to a member by ID.
type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
	// PaymentToken is the gateway's saved-card token, empty when the member
	// has no stored payment method.
	PaymentToken string `json:"-"`
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (m *Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if len(m.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !strings.Contains(m.Email, "@") {
		return ErrInvalidEmail
	}
	switch m.Status {
	case StatusActive, StatusInactive, StatusArchived:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// IsActive returns true if the member is currently active.
func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}

// HasStoredPaymentMethod reports whether the member can be charged directly.
func (m *Member) HasStoredPaymentMethod() bool {
	return m.PaymentToken != ""
}

// Archive sets the member status to archived.
// PRE: Member is not already archived
// POST: Status is set to archived
func (m *Member) Archive() error {
	if m.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	m.Status = StatusArchived
	return nil
}

// Restore returns an archived member to active.
// PRE: Member is archived
// POST: Status is set to active
func (m *Member) Restore() error {
	if m.Status != StatusArchived {
		return ErrNotArchived
	}
	m.Status = StatusActive
	return nil
}

// NormalizeEmail lower-cases and trims an address so lookups match
// regardless of how staff typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
