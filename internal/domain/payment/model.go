package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status constants for the payment lifecycle.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
	StatusCancelled = "cancelled"
	StatusScheduled = "scheduled"
)

// Kind constants used in the "<Plan> - <Kind>" description convention.
const (
	KindSubscription = "Subscription"
	KindSetupFee     = "Setup Fee"
	KindOneTime      = "One-time"
)

// ExtensionVersion is the current version of the Extension layout.
const ExtensionVersion = 1

// Domain errors
var (
	ErrMissingSubject     = errors.New("payment must be associated with a payer")
	ErrNegativeAmount     = errors.New("payment amount cannot be negative")
	ErrInvalidStatus      = errors.New("invalid payment status")
	ErrInvalidTransition  = errors.New("invalid payment status transition")
	ErrRefundExceedsTotal = errors.New("refund exceeds the amount still refundable")
	ErrMissingDate        = errors.New("payment date must be set")
	ErrRefundChanged      = errors.New("refunded amount changed since it was read")
)

// Extension carries typed, versioned metadata attached to a payment.
// Unknown future fields are ignored by readers of older versions.
type Extension struct {
	Version              int        `json:"version"`
	SubscriptionCycleID  string     `json:"subscription_cycle_id,omitempty"`
	PlanID               string     `json:"plan_id,omitempty"`
	Kind                 string     `json:"kind,omitempty"`
	GatewayTransactionID string     `json:"gateway_transaction_id,omitempty"`
	ScheduledFor         *time.Time `json:"scheduled_for,omitempty"`
}

// Record is a single payment against a payer.
type Record struct {
	ID                string    `json:"id"`
	SubjectID         string    `json:"subject_id"`
	Amount            int64     `json:"amount"` // minor currency units
	RefundedAmount    int64     `json:"refunded_amount"`
	Status            string    `json:"status"`
	Description       string    `json:"description"`
	PaymentDate       time.Time `json:"payment_date"`
	ExternalReference string    `json:"external_reference,omitempty"`
	Extension         Extension `json:"extension"`
}

// transitions lists the allowed status moves.
var transitions = map[string][]string{
	StatusPending:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusScheduled: {StatusCompleted, StatusFailed, StatusCancelled, StatusPending},
	StatusCompleted: {StatusRefunded},
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: RefundedAmount never exceeds Amount
func (r *Record) Validate() error {
	if strings.TrimSpace(r.SubjectID) == "" {
		return ErrMissingSubject
	}
	if r.Amount < 0 || r.RefundedAmount < 0 {
		return ErrNegativeAmount
	}
	if r.RefundedAmount > r.Amount {
		return ErrRefundExceedsTotal
	}
	if !ValidStatus(r.Status) {
		return ErrInvalidStatus
	}
	if r.PaymentDate.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// ValidStatus reports whether s is a known payment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed, StatusRefunded, StatusCancelled, StatusScheduled:
		return true
	}
	return false
}

// CanTransition reports whether the record may move to the given status.
func (r *Record) CanTransition(to string) bool {
	for _, s := range transitions[r.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the record to a new status.
// PRE: to is reachable from the current status
// POST: Status updated
func (r *Record) Transition(to string) error {
	if !r.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	return nil
}

// Refundable returns the amount that can still be refunded.
func (r *Record) Refundable() int64 {
	if r.Status != StatusCompleted && r.Status != StatusRefunded {
		return 0
	}
	return r.Amount - r.RefundedAmount
}

// ApplyRefund records a partial or full refund against a completed payment.
// PRE: 0 < amount <= Refundable()
// POST: RefundedAmount increased; Status is refunded
func (r *Record) ApplyRefund(amount int64) error {
	if amount <= 0 {
		return ErrNegativeAmount
	}
	if amount > r.Refundable() {
		return ErrRefundExceedsTotal
	}
	if r.Status == StatusCompleted {
		if err := r.Transition(StatusRefunded); err != nil {
			return err
		}
	}
	r.RefundedAmount += amount
	return nil
}

// ReleaseRefund backs out a refund that was reserved but never paid out.
// A payment with nothing left refunded returns to completed.
func (r *Record) ReleaseRefund(amount int64) error {
	if amount <= 0 {
		return ErrNegativeAmount
	}
	if amount > r.RefundedAmount {
		return ErrRefundExceedsTotal
	}
	r.RefundedAmount -= amount
	if r.RefundedAmount == 0 && r.Status == StatusRefunded {
		r.Status = StatusCompleted
	}
	return nil
}

// PlanName extracts the plan name from the "<Plan> - <Kind>" convention.
// Returns "Unknown Plan" when the separator is absent.
func PlanName(description string) string {
	if i := strings.Index(description, " - "); i >= 0 {
		return description[:i]
	}
	return "Unknown Plan"
}

// IsSubscription reports whether the description marks a recurring payment.
func IsSubscription(description string) bool {
	return strings.Contains(description, KindSubscription)
}

// Describe builds a description in the "<Plan> - <Kind>" convention.
func Describe(plan, kind string) string {
	return plan + " - " + kind
}
