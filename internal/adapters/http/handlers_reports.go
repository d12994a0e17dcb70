package web

import (
	"fmt"
	"net/http"
	"net/url"

	"dojo/internal/application/orchestrators"
	"dojo/internal/application/projections"
	"dojo/internal/domain/domainerr"
)

// handleDashboard serves every panel for the window in one response.
// Query: from, to, min_risk.
func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	win, err := s.window(q)
	if err != nil {
		writeError(w, err)
		return
	}
	level, err := s.minRisk(q)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		From:    win.From,
		To:      win.To,
		MinRisk: level,
	}, projections.GetDashboardDeps{
		AttendanceStore: s.stores.AttendanceStore,
		MemberStore:     s.stores.MemberStore,
		InventoryStore:  s.stores.InventoryStore,
		PaymentStore:    s.stores.PaymentStore,
		Metrics:         s.opts.Metrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type riskReportRequest struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	MinRisk    string   `json:"min_risk"`
	Recipients []string `json:"recipients"`
	DryRun     bool     `json:"dry_run"`
}

// handleRiskReport builds the attendance and stock digest. Recipients
// default to the configured staff list; dry_run returns the report unsent.
func (s *server) handleRiskReport(w http.ResponseWriter, r *http.Request) {
	var req riskReportRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	win, err := s.window(url.Values{"from": nonEmpty(req.From), "to": nonEmpty(req.To)})
	if err != nil {
		writeError(w, err)
		return
	}
	level, err := s.minRisk(url.Values{"min_risk": nonEmpty(req.MinRisk)})
	if err != nil {
		writeError(w, err)
		return
	}
	recipients := req.Recipients
	if len(recipients) == 0 {
		recipients = s.opts.Config.Email.StaffRecipients
	}
	if len(recipients) == 0 && !req.DryRun {
		writeError(w, fmt.Errorf("%w: no recipients configured", domainerr.ErrInvalidInput))
		return
	}

	report, err := orchestrators.ExecuteSendRiskReport(r.Context(), orchestrators.SendRiskReportInput{
		From:       win.From,
		To:         win.To,
		MinRisk:    level,
		Recipients: recipients,
		ReplyTo:    s.opts.Config.Email.ReplyTo,
		DryRun:     req.DryRun,
	}, orchestrators.SendRiskReportDeps{
		AttendanceStore: s.stores.AttendanceStore,
		MemberStore:     s.stores.MemberStore,
		InventoryStore:  s.stores.InventoryStore,
		Metrics:         s.opts.Metrics,
		Email:           s.emailDeps(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}
