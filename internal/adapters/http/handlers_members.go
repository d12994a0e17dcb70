package web

import (
	"net/http"

	"dojo/internal/application/listutil"
	"dojo/internal/application/orchestrators"
	"dojo/internal/application/projections"
)

// handleListMembers pages through the roster with each member's attendance.
// Query: status, from, to, page, per_page.
func (s *server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	win, err := s.window(q)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := projections.QueryGetMemberList(r.Context(), projections.GetMemberListQuery{
		Status: q.Get("status"),
		From:   win.From,
		To:     win.To,
		Page:   listutil.ParsePageParams(q),
	}, projections.GetMemberListDeps{
		MemberStore:     s.stores.MemberStore,
		AttendanceStore: s.stores.AttendanceStore,
		Metrics:         s.opts.Metrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type registerMemberRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PaymentToken string `json:"payment_token"`
}

func (s *server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := orchestrators.ExecuteRegisterMember(r.Context(), orchestrators.RegisterMemberInput{
		Name:         req.Name,
		Email:        req.Email,
		PaymentToken: req.PaymentToken,
	}, orchestrators.RegisterMemberDeps{MemberStore: s.stores.MemberStore, GenerateID: generateID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *server) handleArchiveMember(w http.ResponseWriter, r *http.Request) {
	m, err := orchestrators.ExecuteArchiveMember(r.Context(),
		orchestrators.MemberStatusInput{MemberID: r.PathValue("id")},
		orchestrators.MemberStatusDeps{MemberStore: s.stores.MemberStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) handleRestoreMember(w http.ResponseWriter, r *http.Request) {
	m, err := orchestrators.ExecuteRestoreMember(r.Context(),
		orchestrators.MemberStatusInput{MemberID: r.PathValue("id")},
		orchestrators.MemberStatusDeps{MemberStore: s.stores.MemberStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
