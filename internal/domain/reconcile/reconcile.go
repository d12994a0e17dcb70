// Package reconcile groups flat payment histories into display groups:
// recurring subscription cycles and one-off charges.
package reconcile

import (
	"sort"
	"time"

	"dojo/internal/domain/payment"
)

// Group status constants.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// DateRange is the span covered by a group's payments.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Group is a set of payments shown together.
type Group struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Subscription bool             `json:"subscription"`
	TotalAmount  int64            `json:"total_amount"`
	Status       string           `json:"status"`
	DateRange    DateRange        `json:"date_range"`
	Payments     []payment.Record `json:"payments"` // most recent first
}

// GroupPayments reconciles records into groups.
// Payments carrying Extension.SubscriptionCycleID are grouped by that id.
// Remaining payments whose description marks a subscription are grouped by
// plan name. Everything else becomes a singleton group.
// Groups are ordered by their most recent payment, newest first.
// PRE: none; input order is irrelevant
// POST: every input record appears in exactly one group; input is not mutated
func GroupPayments(records []payment.Record) []Group {
	if len(records) == 0 {
		return []Group{}
	}

	sorted := make([]payment.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.PaymentDate.Equal(b.PaymentDate) {
			return a.PaymentDate.After(b.PaymentDate)
		}
		return a.ID < b.ID
	})

	// Groups are created in the order their newest payment is seen, which is
	// already the output order because the input is sorted newest first.
	var groups []*Group
	byKey := make(map[string]*Group)

	for _, r := range sorted {
		key, title, recurring := classify(r)
		if !recurring {
			groups = append(groups, &Group{
				ID:        r.ID,
				Title:     title,
				Status:    singletonStatus(r.Status),
				Payments:  []payment.Record{r},
				DateRange: DateRange{From: r.PaymentDate, To: r.PaymentDate},
			})
			continue
		}
		g, ok := byKey[key]
		if !ok {
			g = &Group{ID: key, Title: title, Subscription: true}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Payments = append(g.Payments, r)
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		for _, p := range g.Payments {
			g.TotalAmount += p.Amount
		}
		if g.Subscription {
			g.Status = cycleStatus(g.Payments)
			// Payments are newest first.
			g.DateRange = DateRange{
				From: g.Payments[len(g.Payments)-1].PaymentDate,
				To:   g.Payments[0].PaymentDate,
			}
		}
		out = append(out, *g)
	}
	return out
}

// classify returns the grouping key, title and whether the payment belongs
// to a recurring cycle.
func classify(r payment.Record) (string, string, bool) {
	title := payment.PlanName(r.Description)
	if id := r.Extension.SubscriptionCycleID; id != "" {
		return "cycle:" + id, title, true
	}
	if payment.IsSubscription(r.Description) {
		return "plan:" + title, title, true
	}
	return "", title, false
}

// cycleStatus derives a recurring group's status.
// A failure or refund anywhere cancels the cycle, even when other payments
// completed. Only then is completeness considered.
func cycleStatus(ps []payment.Record) string {
	for _, p := range ps {
		if p.Status == payment.StatusFailed || p.Status == payment.StatusRefunded {
			return StatusCancelled
		}
	}
	for _, p := range ps {
		if p.Status != payment.StatusCompleted {
			return StatusActive
		}
	}
	return StatusCompleted
}

func singletonStatus(s string) string {
	switch s {
	case payment.StatusCompleted:
		return StatusCompleted
	case payment.StatusFailed:
		return StatusCancelled
	}
	return StatusActive
}
