package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dojo/internal/adapters/gateway"
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/member"
	"dojo/internal/domain/membership"
	"dojo/internal/domain/payment"
)

// ErrChargeDeclined is returned when the processor refuses a charge.
var ErrChargeDeclined = errors.New("charge declined")

// AssignMembershipInput is the completed assignment wizard.
type AssignMembershipInput struct {
	MemberID            string               `validate:"required"`
	PlanID              string               `validate:"required"`
	StartDate           time.Time            `validate:"required"`
	PaymentPath         string               `validate:"required,oneof=charge manual scheduled"`
	Discount            *membership.Discount `validate:"omitempty"`
	WaiveSetupFee       bool
	CustomSetupFeeCents int64 `validate:"gte=0"`
	// ScheduledFor is the first payment date on the scheduled path; defaults
	// to StartDate.
	ScheduledFor time.Time
}

// AssignMembershipDeps holds dependencies for AssignMembership.
type AssignMembershipDeps struct {
	MembershipStore MembershipStore
	MemberLookup    MemberLookup
	PaymentStore    PaymentStore
	Gateway         Charger  // required on the charge path
	Refunds         Refunder // returns charges taken before a later decline in the cycle
	Metrics         GatewayObserver
	GenerateID      func() string
	Now             func() time.Time
}

// AssignmentResult is the saved assignment, its price and its payments.
type AssignmentResult struct {
	Assignment membership.Assignment `json:"assignment"`
	Price      membership.Price      `json:"price"`
	Payments   []payment.Record      `json:"payments"`
}

// ExecuteAssignMembership prices the plan for the member, saves the
// assignment, then takes payment on the chosen path:
//   - charge: the member's stored payment method is charged through the gateway
//   - manual: staff collected payment; records are completed
//   - scheduled: records are scheduled for a future date
//
// Every payment carries the assignment's subscription cycle id. The setup fee
// is a separate record and is skipped when nothing is charged for it.
// PRE: plan is active; member is not archived; charge path needs a stored method
// POST: on a declined charge the records are failed, the assignment cancelled,
// records already charged in the cycle refunded in full, and
// ErrChargeDeclined is returned alongside the result
func ExecuteAssignMembership(ctx context.Context, input AssignMembershipInput, deps AssignMembershipDeps) (AssignmentResult, error) {
	if err := validateInput(input); err != nil {
		return AssignmentResult{}, err
	}

	plan, err := deps.MembershipStore.GetPlan(ctx, input.PlanID)
	if err != nil {
		return AssignmentResult{}, fmt.Errorf("get plan %s: %w", input.PlanID, err)
	}
	if !plan.Active {
		return AssignmentResult{}, invalid(membership.ErrPlanInactive)
	}
	m, err := deps.MemberLookup.GetByID(ctx, input.MemberID)
	if err != nil {
		return AssignmentResult{}, fmt.Errorf("get member %s: %w", input.MemberID, err)
	}
	if m.Status == member.StatusArchived {
		return AssignmentResult{}, domainerr.Invalidf("member %s is archived", m.ID)
	}
	if input.PaymentPath == membership.PathCharge {
		if !m.HasStoredPaymentMethod() {
			return AssignmentResult{}, domainerr.Invalidf("member %s has no stored payment method", m.ID)
		}
		if deps.Gateway == nil {
			return AssignmentResult{}, fmt.Errorf("charge path: %w", gateway.ErrUnavailable)
		}
	}

	price, err := membership.ComputeFinalPrice(plan.BasePriceCents, input.Discount, plan.SetupFeeCents, input.WaiveSetupFee, input.CustomSetupFeeCents)
	if err != nil {
		return AssignmentResult{}, err
	}

	now := nowOrUTC(deps.Now)
	a := membership.Assignment{
		ID:                idOrUUID(deps.GenerateID),
		MemberID:          m.ID,
		PlanID:            plan.ID,
		StartDate:         input.StartDate.UTC(),
		Status:            membership.StatusPending,
		PriceCents:        price.DiscountedPriceCents,
		SetupFeeCents:     price.SetupFeeChargedCents,
		PaymentPath:       input.PaymentPath,
		SubscriptionCycle: uuid.NewString(),
		CreatedAt:         now,
	}
	if input.PaymentPath == membership.PathManual {
		a.Status = membership.StatusActive
	}
	if err := a.Validate(); err != nil {
		return AssignmentResult{}, invalid(err)
	}

	payments := buildAssignmentPayments(plan, a, price, input, now, deps.GenerateID)
	if err := deps.MembershipStore.SaveAssignment(ctx, a); err != nil {
		return AssignmentResult{}, fmt.Errorf("save assignment: %w", err)
	}
	for _, p := range payments {
		if err := deps.PaymentStore.Save(ctx, p); err != nil {
			return AssignmentResult{}, fmt.Errorf("save payment: %w", err)
		}
	}
	res := AssignmentResult{Assignment: a, Price: price, Payments: payments}
	slog.Info("membership_assigned", "assignment_id", a.ID, "member_id", m.ID, "plan_id", plan.ID,
		"path", a.PaymentPath, "total_cents", price.TotalCents, "cycle_id", a.SubscriptionCycle)

	if input.PaymentPath != membership.PathCharge {
		return res, nil
	}
	return chargeAssignment(ctx, res, m.PaymentToken, deps)
}

// buildAssignmentPayments creates the subscription record and, when a fee is
// charged, the setup fee record.
func buildAssignmentPayments(plan membership.Plan, a membership.Assignment, price membership.Price, input AssignMembershipInput, now time.Time, genID func() string) []payment.Record {
	status := payment.StatusPending
	date := now
	var scheduledFor *time.Time
	switch input.PaymentPath {
	case membership.PathManual:
		status = payment.StatusCompleted
	case membership.PathScheduled:
		status = payment.StatusScheduled
		date = input.StartDate.UTC()
		if !input.ScheduledFor.IsZero() {
			date = input.ScheduledFor.UTC()
		}
		scheduledFor = &date
	}

	newRecord := func(kind string, amount int64) payment.Record {
		id := idOrUUID(genID)
		r := payment.Record{
			ID:          id,
			SubjectID:   a.MemberID,
			Amount:      amount,
			Status:      status,
			Description: payment.Describe(plan.Name, kind),
			PaymentDate: date,
			Extension: payment.Extension{
				Version:             payment.ExtensionVersion,
				SubscriptionCycleID: a.SubscriptionCycle,
				PlanID:              plan.ID,
				Kind:                kind,
				ScheduledFor:        scheduledFor,
			},
		}
		if input.PaymentPath == membership.PathCharge {
			r.ExternalReference = id
		}
		return r
	}

	kind := payment.KindSubscription
	if !plan.IsRecurring() {
		kind = payment.KindOneTime
	}
	out := []payment.Record{newRecord(kind, price.DiscountedPriceCents)}
	if price.SetupFeeChargedCents > 0 {
		out = append(out, newRecord(payment.KindSetupFee, price.SetupFeeChargedCents))
	}
	return out
}

// chargeAssignment charges each pending record. A processor outage leaves the
// remaining records pending for the notification webhook to settle.
func chargeAssignment(ctx context.Context, res AssignmentResult, token string, deps AssignMembershipDeps) (AssignmentResult, error) {
	declined := false
	for i := range res.Payments {
		p := &res.Payments[i]
		switch {
		case declined:
			// The cycle is void once any part of it is declined.
			_ = p.Transition(payment.StatusCancelled)
		case p.Amount == 0:
			_ = p.Transition(payment.StatusCompleted)
		default:
			out, err := deps.Gateway.Charge(ctx, gateway.ChargeRequest{
				OrderID:      p.ExternalReference,
				Amount:       p.Amount,
				PaymentToken: token,
				Description:  p.Description,
			})
			observeGateway(deps.Metrics, "charge", err == nil && out.Success)
			if err != nil {
				slog.Error("membership_charge_unavailable", "payment_id", p.ID, "error", err)
				return res, fmt.Errorf("charge %s: %w", p.Description, err)
			}
			p.Extension.GatewayTransactionID = out.Reference
			switch {
			case !out.Success:
				declined = true
				_ = p.Transition(payment.StatusFailed)
				slog.Warn("membership_charge_declined", "payment_id", p.ID, "reason", out.Error)
			case !out.Pending:
				_ = p.Transition(payment.StatusCompleted)
			}
		}
		if err := deps.PaymentStore.Save(ctx, *p); err != nil {
			return res, fmt.Errorf("save payment: %w", err)
		}
	}

	switch {
	case declined:
		res.Assignment.Status = membership.StatusCancelled
	case allCompleted(res.Payments):
		res.Assignment.Status = membership.StatusActive
	default:
		return res, nil
	}
	if err := deps.MembershipStore.SaveAssignment(ctx, res.Assignment); err != nil {
		return res, fmt.Errorf("save assignment: %w", err)
	}
	if declined {
		if err := refundCycle(ctx, res.Payments, deps); err != nil {
			return res, errors.Join(ErrChargeDeclined, err)
		}
		return res, ErrChargeDeclined
	}
	return res, nil
}

// refundCycle refunds every completed gateway charge in ps in full. Charges
// still pending at the processor are left for the notification webhook.
func refundCycle(ctx context.Context, ps []payment.Record, deps AssignMembershipDeps) error {
	var errs []error
	for i := range ps {
		p := &ps[i]
		if p.Status != payment.StatusCompleted || p.Amount == 0 || p.ExternalReference == "" {
			continue
		}
		if deps.Refunds == nil {
			errs = append(errs, fmt.Errorf("refund %s: %w", p.ID, gateway.ErrUnavailable))
			continue
		}
		out, err := deps.Refunds.Refund(ctx, gateway.RefundRequest{
			OrderID:   p.ExternalReference,
			RefundKey: idOrUUID(deps.GenerateID),
			Amount:    p.Amount,
			Reason:    "membership charge declined",
		})
		observeGateway(deps.Metrics, "refund", err == nil && out.Success)
		if err == nil && !out.Success {
			err = fmt.Errorf("%w: %s", ErrRefundDeclined, out.Error)
		}
		if err != nil {
			slog.Error("membership_refund_failed", "payment_id", p.ID, "amount", p.Amount, "error", err)
			errs = append(errs, fmt.Errorf("refund %s: %w", p.ID, err))
			continue
		}
		if err := p.ApplyRefund(p.Amount); err != nil {
			errs = append(errs, fmt.Errorf("refund %s: %w", p.ID, err))
			continue
		}
		if err := deps.PaymentStore.Save(ctx, *p); err != nil {
			errs = append(errs, fmt.Errorf("save payment: %w", err))
			continue
		}
		slog.Info("membership_charge_refunded", "payment_id", p.ID, "amount", p.Amount)
	}
	return errors.Join(errs...)
}

func allCompleted(ps []payment.Record) bool {
	for _, p := range ps {
		if p.Status != payment.StatusCompleted {
			return false
		}
	}
	return true
}

func observeGateway(m GatewayObserver, op string, ok bool) {
	if m != nil {
		m.GatewayCall(op, ok)
	}
}
