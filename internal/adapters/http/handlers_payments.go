package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"dojo/internal/adapters/gateway"
	"dojo/internal/application/listutil"
	"dojo/internal/application/orchestrators"
	"dojo/internal/application/projections"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/membership"
	"dojo/internal/domain/preference"
)

var paymentSortColumns = []string{
	preference.ColumnDate,
	preference.ColumnAmount,
	preference.ColumnStatus,
	preference.ColumnDescription,
}

// handlePaymentHistory lists payments in the owner's preferred view.
// Query: owner_id, subject_id, view, sort, dir, page, per_page.
func (s *server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := projections.QueryGetPaymentHistory(r.Context(), projections.GetPaymentHistoryQuery{
		SubjectID: q.Get("subject_id"),
		OwnerID:   q.Get("owner_id"),
		ViewMode:  q.Get("view"),
		Sort:      listutil.ParseSortParams(q, paymentSortColumns),
		Page:      listutil.ParsePageParams(q),
	}, projections.GetPaymentHistoryDeps{
		PaymentStore:    s.stores.PaymentStore,
		PreferenceStore: s.stores.PreferenceStore,
		Metrics:         s.opts.Metrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type refundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (s *server) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	deps := orchestrators.RefundPaymentDeps{
		PaymentStore: s.stores.PaymentStore,
		Metrics:      s.opts.Metrics,
		GenerateID:   generateID,
	}
	if s.opts.Gateway != nil {
		deps.Gateway = s.opts.Gateway
	}
	rec, err := orchestrators.ExecuteRefundPayment(r.Context(), orchestrators.RefundPaymentInput{
		PaymentID: r.PathValue("id"),
		Amount:    req.Amount,
		Reason:    req.Reason,
	}, deps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleNotification applies a processor webhook. The processor retries on
// any non-2xx, so unknown orders are acknowledged rather than reported.
func (s *server) handleNotification(w http.ResponseWriter, r *http.Request) {
	var n gateway.Notification
	if err := strictDecode(w, r, &n); err != nil {
		writeError(w, err)
		return
	}
	res, err := orchestrators.ExecuteApplyGatewayNotification(r.Context(), n, orchestrators.ApplyGatewayNotificationDeps{
		Verifier:     s.opts.Verifier,
		PaymentStore: s.stores.PaymentStore,
	})
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeJSON(w, http.StatusOK, map[string]any{"applied": false})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type assignMembershipRequest struct {
	MemberID            string               `json:"member_id"`
	PlanID              string               `json:"plan_id"`
	StartDate           string               `json:"start_date"` // YYYY-MM-DD
	PaymentPath         string               `json:"payment_path"`
	Discount            *membership.Discount `json:"discount,omitempty"`
	WaiveSetupFee       bool                 `json:"waive_setup_fee"`
	CustomSetupFeeCents int64                `json:"custom_setup_fee_cents"`
	ScheduledFor        string               `json:"scheduled_for,omitempty"` // YYYY-MM-DD
}

// handleAssignMembership runs the assignment wizard. A declined charge
// answers 402 with the cancelled assignment so the caller sees which
// payments failed.
func (s *server) handleAssignMembership(w http.ResponseWriter, r *http.Request) {
	var req assignMembershipRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	start, err := attendance.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, fmt.Errorf("%w: start_date: %w", domainerr.ErrInvalidInput, err))
		return
	}
	var scheduled time.Time
	if req.ScheduledFor != "" {
		if scheduled, err = attendance.ParseDate(req.ScheduledFor); err != nil {
			writeError(w, fmt.Errorf("%w: scheduled_for: %w", domainerr.ErrInvalidInput, err))
			return
		}
	}

	deps := orchestrators.AssignMembershipDeps{
		MembershipStore: s.stores.MembershipStore,
		MemberLookup:    s.stores.MemberStore,
		PaymentStore:    s.stores.PaymentStore,
		Metrics:         s.opts.Metrics,
		GenerateID:      generateID,
		Now:             s.now,
	}
	if s.opts.Gateway != nil {
		deps.Gateway = s.opts.Gateway
		deps.Refunds = s.opts.Gateway
	}
	res, err := orchestrators.ExecuteAssignMembership(r.Context(), orchestrators.AssignMembershipInput{
		MemberID:            req.MemberID,
		PlanID:              req.PlanID,
		StartDate:           start,
		PaymentPath:         req.PaymentPath,
		Discount:            req.Discount,
		WaiveSetupFee:       req.WaiveSetupFee,
		CustomSetupFeeCents: req.CustomSetupFeeCents,
		ScheduledFor:        scheduled,
	}, deps)
	switch {
	case errors.Is(err, orchestrators.ErrChargeDeclined):
		writeJSON(w, http.StatusPaymentRequired, res)
	case err != nil:
		writeError(w, err)
	default:
		writeJSON(w, http.StatusCreated, res)
	}
}

func (s *server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := projections.QueryGetPreferences(r.Context(), projections.GetPreferencesQuery{
		OwnerID: r.PathValue("owner"),
	}, projections.GetPreferencesDeps{PreferenceStore: s.stores.PreferenceStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

type savePreferencesRequest struct {
	ViewMode   string `json:"view_mode"`
	SortColumn string `json:"sort_column"`
	SortDir    string `json:"sort_dir"`
}

func (s *server) handleSavePreferences(w http.ResponseWriter, r *http.Request) {
	var req savePreferencesRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	prefs, err := orchestrators.ExecuteSavePreferences(r.Context(), orchestrators.SavePreferencesInput{
		OwnerID:    r.PathValue("owner"),
		ViewMode:   req.ViewMode,
		SortColumn: req.SortColumn,
		SortDir:    req.SortDir,
	}, orchestrators.SavePreferencesDeps{PreferenceStore: s.stores.PreferenceStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
