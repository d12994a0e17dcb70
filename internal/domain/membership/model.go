package membership

import (
	"errors"
	"strings"
	"time"
)

// Billing intervals for a plan.
const (
	IntervalWeekly  = "weekly"
	IntervalMonthly = "monthly"
	IntervalTerm    = "term"
	IntervalOneTime = "one_time"
)

// Assignment status constants.
const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

// Payment paths offered by the assignment wizard.
const (
	PathCharge    = "charge"    // stored payment method through the gateway
	PathManual    = "manual"    // cash/bank transfer recorded by staff
	PathScheduled = "scheduled" // first payment recorded for a future date
)

// Domain errors
var (
	ErrMissingPlanName  = errors.New("plan name cannot be empty")
	ErrPlanNameHyphen   = errors.New("plan name cannot contain ' - '")
	ErrInvalidInterval  = errors.New("billing interval must be weekly, monthly, term, or one_time")
	ErrNegativePrice    = errors.New("plan prices cannot be negative")
	ErrPlanInactive     = errors.New("plan is not available for new assignments")
	ErrMissingMember    = errors.New("assignment must reference a member")
	ErrMissingStartDate = errors.New("assignment start date must be set")
	ErrInvalidPath      = errors.New("payment path must be charge, manual, or scheduled")
)

// Plan is a purchasable membership option.
type Plan struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BasePriceCents  int64  `json:"base_price_cents"`
	SetupFeeCents   int64  `json:"setup_fee_cents"`
	BillingInterval string `json:"billing_interval"`
	Active          bool   `json:"active"`
}

// Validate checks if the Plan has valid data.
// PRE: Plan struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name never contains the " - " description separator
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrMissingPlanName
	}
	if strings.Contains(p.Name, " - ") {
		return ErrPlanNameHyphen
	}
	switch p.BillingInterval {
	case IntervalWeekly, IntervalMonthly, IntervalTerm, IntervalOneTime:
	default:
		return ErrInvalidInterval
	}
	if p.BasePriceCents < 0 || p.SetupFeeCents < 0 {
		return ErrNegativePrice
	}
	return nil
}

// IsRecurring reports whether the plan bills more than once.
func (p *Plan) IsRecurring() bool {
	return p.BillingInterval != IntervalOneTime
}

// Assignment links a member to a plan at an agreed price.
type Assignment struct {
	ID                string    `json:"id"`
	MemberID          string    `json:"member_id"`
	PlanID            string    `json:"plan_id"`
	StartDate         time.Time `json:"start_date"`
	Status            string    `json:"status"`
	PriceCents        int64     `json:"price_cents"`     // discounted recurring price
	SetupFeeCents     int64     `json:"setup_fee_cents"` // setup fee actually charged
	PaymentPath       string    `json:"payment_path"`
	SubscriptionCycle string    `json:"subscription_cycle"` // id shared by every payment of this assignment
	CreatedAt         time.Time `json:"created_at"`
}

// Validate checks if the Assignment has valid data.
// PRE: Assignment struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (a *Assignment) Validate() error {
	if strings.TrimSpace(a.MemberID) == "" {
		return ErrMissingMember
	}
	if a.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if !ValidPath(a.PaymentPath) {
		return ErrInvalidPath
	}
	if a.PriceCents < 0 || a.SetupFeeCents < 0 {
		return ErrNegativePrice
	}
	return nil
}

// ValidPath reports whether p is a known payment path.
func ValidPath(p string) bool {
	switch p {
	case PathCharge, PathManual, PathScheduled:
		return true
	}
	return false
}

// NextBillingDate returns the billing date following from for the interval.
// One-time plans return the zero time.
func NextBillingDate(from time.Time, interval string) time.Time {
	switch interval {
	case IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case IntervalMonthly:
		return from.AddDate(0, 1, 0)
	case IntervalTerm:
		return from.AddDate(0, 0, 70)
	}
	return time.Time{}
}
