// Package gateway is the boundary to the card processor used for charges
// and refunds. Callers see only Result; processor wire formats stay inside
// the adapters.
package gateway

import (
	"context"
	"errors"
)

// ErrUnavailable wraps transport-level failures (network, auth, 5xx).
// A declined card is not an error; it is a Result with Success false.
var ErrUnavailable = errors.New("payment gateway unavailable")

// ChargeRequest charges a member's stored payment method.
type ChargeRequest struct {
	OrderID      string
	Amount       int64
	PaymentToken string
	Description  string
}

// RefundRequest returns money for a previously settled order.
type RefundRequest struct {
	OrderID   string
	RefundKey string // idempotency key; repeated keys are not refunded twice
	Amount    int64
	Reason    string
}

// Result is the outcome reported by the processor.
type Result struct {
	Success   bool   `json:"success"`
	Pending   bool   `json:"pending,omitempty"` // accepted, settlement arrives by notification
	Amount    int64  `json:"amount,omitempty"`
	Reference string `json:"reference,omitempty"` // processor transaction id
	Error     string `json:"error,omitempty"`
}

// Gateway charges and refunds through an external processor.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Result, error)
	Refund(ctx context.Context, req RefundRequest) (Result, error)
}

// Notification is an asynchronous status update pushed by the processor.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

// Verifier authenticates notifications.
type Verifier interface {
	Verify(n Notification) bool
}
