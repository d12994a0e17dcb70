package stats

import (
	"sort"

	"dojo/internal/domain/payment"
)

// StatusTotal accumulates payments sharing a status.
type StatusTotal struct {
	Count  int   `json:"count"`
	Amount int64 `json:"amount"`
}

// MonthTotal is net collected revenue for one calendar month.
type MonthTotal struct {
	Month     string `json:"month"` // YYYY-MM
	Collected int64  `json:"collected"`
}

// PaymentStats summarises a payment collection.
type PaymentStats struct {
	Count       int                    `json:"count"`
	ByStatus    map[string]StatusTotal `json:"by_status"`
	Collected   int64                  `json:"collected"`   // settled money kept after refunds
	Refunded    int64                  `json:"refunded"`    // money returned to payers
	Outstanding int64                  `json:"outstanding"` // pending + scheduled
	Monthly     []MonthTotal           `json:"monthly"`     // ascending by month
}

// AggregatePayments totals payments per status and per month.
// Refunds are tracked against the original record, so a partially refunded
// payment contributes Amount-RefundedAmount to Collected.
func AggregatePayments(records []payment.Record) PaymentStats {
	out := PaymentStats{
		Count:    len(records),
		ByStatus: make(map[string]StatusTotal),
	}
	monthly := make(map[string]int64)

	for _, r := range records {
		st := out.ByStatus[r.Status]
		st.Count++
		st.Amount += r.Amount
		out.ByStatus[r.Status] = st

		switch r.Status {
		case payment.StatusCompleted, payment.StatusRefunded:
			net := r.Amount - r.RefundedAmount
			out.Collected += net
			out.Refunded += r.RefundedAmount
			monthly[r.PaymentDate.UTC().Format("2006-01")] += net
		case payment.StatusPending, payment.StatusScheduled:
			out.Outstanding += r.Amount
		}
	}

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	out.Monthly = make([]MonthTotal, 0, len(months))
	for _, m := range months {
		out.Monthly = append(out.Monthly, MonthTotal{Month: m, Collected: monthly[m]})
	}
	return out
}
