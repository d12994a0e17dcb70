package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dojo/internal/adapters/gateway"
	"dojo/internal/domain/payment"
)

// ErrInvalidSignature is returned for notifications that fail verification.
var ErrInvalidSignature = errors.New("notification signature invalid")

// ApplyGatewayNotificationDeps holds dependencies for ApplyGatewayNotification.
type ApplyGatewayNotificationDeps struct {
	Verifier     gateway.Verifier
	PaymentStore PaymentStore
}

// NotificationResult reports what a notification did.
type NotificationResult struct {
	Payment payment.Record `json:"payment"`
	Applied bool           `json:"applied"`
}

// ExecuteApplyGatewayNotification settles a pending or scheduled payment from
// a processor notification. Repeated and stale notifications are accepted
// without changing the record so the processor stops redelivering.
// PRE: the notification's order id is a payment's external reference
// POST: payment status follows the processor's transaction status when the
// transition is allowed
func ExecuteApplyGatewayNotification(ctx context.Context, n gateway.Notification, deps ApplyGatewayNotificationDeps) (NotificationResult, error) {
	if deps.Verifier == nil || !deps.Verifier.Verify(n) {
		slog.Warn("notification_rejected", "order_id", n.OrderID)
		return NotificationResult{}, ErrInvalidSignature
	}
	r, err := deps.PaymentStore.GetByExternalReference(ctx, n.OrderID)
	if err != nil {
		return NotificationResult{}, fmt.Errorf("get payment for order %s: %w", n.OrderID, err)
	}

	target := notificationStatus(n)
	if target == "" || target == r.Status {
		return NotificationResult{Payment: r}, nil
	}
	if err := r.Transition(target); err != nil {
		slog.Info("notification_ignored", "payment_id", r.ID, "status", r.Status, "notified", n.TransactionStatus)
		return NotificationResult{Payment: r}, nil
	}
	if n.TransactionID != "" {
		r.Extension.GatewayTransactionID = n.TransactionID
	}
	if err := deps.PaymentStore.Save(ctx, r); err != nil {
		return NotificationResult{}, fmt.Errorf("save payment: %w", err)
	}
	slog.Info("notification_applied", "payment_id", r.ID, "status", r.Status, "transaction_id", n.TransactionID)
	return NotificationResult{Payment: r, Applied: true}, nil
}

// notificationStatus maps a processor transaction status to a payment
// status. Empty means no change.
func notificationStatus(n gateway.Notification) string {
	switch n.TransactionStatus {
	case gateway.TxCapture, gateway.TxSettlement:
		if n.FraudStatus == "" || n.FraudStatus == "accept" {
			return payment.StatusCompleted
		}
		if n.FraudStatus == "deny" {
			return payment.StatusFailed
		}
	case gateway.TxDeny, gateway.TxFailure:
		return payment.StatusFailed
	case gateway.TxCancel, gateway.TxExpire:
		return payment.StatusCancelled
	}
	return ""
}
