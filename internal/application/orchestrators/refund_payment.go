package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dojo/internal/adapters/gateway"
	"dojo/internal/domain/payment"
)

// ErrRefundDeclined is returned when the processor refuses a refund.
var ErrRefundDeclined = errors.New("refund declined")

// RefundPaymentInput is a partial or full refund request.
type RefundPaymentInput struct {
	PaymentID string `validate:"required"`
	Amount    int64  `validate:"gt=0"`
	Reason    string `validate:"max=200"`
}

// RefundPaymentDeps holds dependencies for RefundPayment.
type RefundPaymentDeps struct {
	PaymentStore PaymentStore
	Gateway      Refunder // used when the payment went through the processor
	Metrics      GatewayObserver
	GenerateID   func() string
}

// ExecuteRefundPayment returns money against a completed payment.
// The amount is reserved on the record before the processor is asked, so two
// concurrent refunds cannot both pass the refundable check. Gateway-settled
// payments are then refunded through the processor; manual payments are only
// recorded. A refused or failed processor call releases the reservation.
// PRE: payment is completed or partially refunded; Amount <= refundable remainder
// POST: RefundedAmount increased by Amount; status refunded
func ExecuteRefundPayment(ctx context.Context, input RefundPaymentInput, deps RefundPaymentDeps) (payment.Record, error) {
	if err := validateInput(input); err != nil {
		return payment.Record{}, err
	}
	r, err := deps.PaymentStore.GetByID(ctx, input.PaymentID)
	if err != nil {
		return payment.Record{}, fmt.Errorf("get payment %s: %w", input.PaymentID, err)
	}
	if input.Amount > r.Refundable() {
		return payment.Record{}, invalid(fmt.Errorf("%w: requested %d, refundable %d", payment.ErrRefundExceedsTotal, input.Amount, r.Refundable()))
	}
	if r.ExternalReference != "" && deps.Gateway == nil {
		return payment.Record{}, fmt.Errorf("refund %s: %w", r.ID, gateway.ErrUnavailable)
	}

	read := r.RefundedAmount
	if err := r.ApplyRefund(input.Amount); err != nil {
		return payment.Record{}, invalid(err)
	}
	if err := deps.PaymentStore.SaveRefund(ctx, r, read); err != nil {
		return payment.Record{}, fmt.Errorf("reserve refund on %s: %w", r.ID, err)
	}

	if r.ExternalReference != "" {
		out, err := deps.Gateway.Refund(ctx, gateway.RefundRequest{
			OrderID:   r.ExternalReference,
			RefundKey: idOrUUID(deps.GenerateID),
			Amount:    input.Amount,
			Reason:    input.Reason,
		})
		observeGateway(deps.Metrics, "refund", err == nil && out.Success)
		if err == nil && !out.Success {
			slog.Warn("refund_declined", "payment_id", r.ID, "reason", out.Error)
			err = fmt.Errorf("%w: %s", ErrRefundDeclined, out.Error)
		}
		if err != nil {
			if rerr := releaseRefund(context.WithoutCancel(ctx), deps.PaymentStore, r.ID, input.Amount); rerr != nil {
				slog.Error("refund_release_failed", "payment_id", r.ID, "amount", input.Amount, "error", rerr)
			}
			return payment.Record{}, fmt.Errorf("refund %s: %w", r.ID, err)
		}
	}

	slog.Info("payment_refunded", "payment_id", r.ID, "amount", input.Amount, "refunded_total", r.RefundedAmount)
	return r, nil
}

// releaseAttempts bounds re-reads while backing out a reservation.
const releaseAttempts = 5

// releaseRefund backs a reserved amount out of the stored record, re-reading
// when another refund moved the total in between.
func releaseRefund(ctx context.Context, store PaymentStore, id string, amount int64) error {
	var err error
	for attempt := 0; attempt < releaseAttempts; attempt++ {
		var r payment.Record
		r, err = store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		read := r.RefundedAmount
		if err = r.ReleaseRefund(amount); err != nil {
			return err
		}
		err = store.SaveRefund(ctx, r, read)
		if !errors.Is(err, payment.ErrRefundChanged) {
			return err
		}
	}
	return err
}
