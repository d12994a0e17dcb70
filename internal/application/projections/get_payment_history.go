package projections

import (
	"context"
	"fmt"
	"sort"
	"strings"

	paymentStore "dojo/internal/adapters/storage/payment"
	"dojo/internal/application/listutil"
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/payment"
	"dojo/internal/domain/preference"
	"dojo/internal/domain/reconcile"
	"dojo/internal/domain/stats"
)

// GetPaymentHistoryQuery carries input for the payment history projection.
// Empty view and sort fields fall back to the owner's stored preferences.
type GetPaymentHistoryQuery struct {
	SubjectID string // empty lists every payer
	OwnerID   string // staff member whose preferences apply
	ViewMode  string
	Sort      listutil.SortParams
	Page      listutil.PageParams
}

// GetPaymentHistoryDeps holds dependencies for the payment history projection.
type GetPaymentHistoryDeps struct {
	PaymentStore    PaymentStore
	PreferenceStore PreferenceStore // optional
	Metrics         EngineObserver
}

// PaymentHistoryResult is either grouped cycles or a sorted, paged table.
type PaymentHistoryResult struct {
	ViewMode    string                     `json:"view_mode"`
	Preferences preference.ViewPreferences `json:"preferences"`
	Stats       stats.PaymentStats         `json:"stats"`
	Groups      []reconcile.Group          `json:"groups,omitempty"`
	Payments    []payment.Record           `json:"payments,omitempty"`
	PageInfo    *listutil.PageInfo         `json:"page_info,omitempty"`
}

// QueryGetPaymentHistory lists a payer's payments in the requested view.
// PRE: query.ViewMode is empty, table or grouped
// POST: grouped view covers every payment exactly once; table view is one page
func QueryGetPaymentHistory(ctx context.Context, query GetPaymentHistoryQuery, deps GetPaymentHistoryDeps) (PaymentHistoryResult, error) {
	prefs, err := QueryGetPreferences(ctx, GetPreferencesQuery{OwnerID: query.OwnerID}, GetPreferencesDeps{PreferenceStore: deps.PreferenceStore})
	if err != nil {
		return PaymentHistoryResult{}, err
	}
	if query.ViewMode != "" {
		prefs.ViewMode = query.ViewMode
	}
	if query.Sort.Column != "" {
		prefs.SortColumn = query.Sort.Column
	}
	if query.Sort.Dir != "" {
		prefs.SortDir = query.Sort.Dir
	}
	if prefs.OwnerID == "" {
		prefs.OwnerID = "anonymous"
	}
	if err := prefs.Validate(); err != nil {
		return PaymentHistoryResult{}, fmt.Errorf("%w: %w", domainerr.ErrInvalidInput, err)
	}

	records, err := deps.PaymentStore.List(ctx, paymentStore.ListFilter{SubjectID: query.SubjectID})
	if err != nil {
		return PaymentHistoryResult{}, fmt.Errorf("list payments: %w", err)
	}

	res := PaymentHistoryResult{
		ViewMode:    prefs.ViewMode,
		Preferences: prefs,
		Stats:       stats.AggregatePayments(records),
	}

	if prefs.ViewMode == preference.ViewGrouped {
		res.Groups = reconcile.GroupPayments(records)
		observe(deps.Metrics, "group_payments", nil)
		return res, nil
	}

	sorted := make([]payment.Record, len(records))
	copy(sorted, records)
	SortPayments(sorted, prefs.SortColumn, prefs.SortDir)

	info := listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, len(sorted))
	res.Payments = listutil.Slice(sorted, info)
	res.PageInfo = &info
	return res, nil
}

// SortPayments orders records in place by column and direction; ties fall
// back to date then id so pages are stable.
func SortPayments(records []payment.Record, column, dir string) {
	cmp := func(a, b payment.Record) int {
		switch column {
		case preference.ColumnAmount:
			return compareInt(a.Amount, b.Amount)
		case preference.ColumnStatus:
			return strings.Compare(a.Status, b.Status)
		case preference.ColumnDescription:
			return strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		}
		return a.PaymentDate.Compare(b.PaymentDate)
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		c := cmp(a, b)
		if c == 0 {
			c = a.PaymentDate.Compare(b.PaymentDate)
		}
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if dir == preference.SortDesc {
			return c > 0
		}
		return c < 0
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
