package web

import (
	"fmt"
	"net/http"

	"dojo/internal/application/orchestrators"
	"dojo/internal/application/projections"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/domainerr"
)

// handleAttendanceStats serves rollups for a window.
// Query: from, to, class_id, group_by (student|class).
func (s *server) handleAttendanceStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	win, err := s.window(q)
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := projections.QueryGetAttendanceStats(r.Context(), projections.GetAttendanceStatsQuery{
		From:    win.From,
		To:      win.To,
		ClassID: q.Get("class_id"),
		GroupBy: q.Get("group_by"),
	}, projections.GetAttendanceStatsDeps{
		AttendanceStore: s.stores.AttendanceStore,
		Metrics:         s.opts.Metrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// handleAtRisk lists students at or above min_risk.
func (s *server) handleAtRisk(w http.ResponseWriter, r *http.Request) {
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
	students, err := projections.QueryGetAtRiskStudents(r.Context(), projections.GetAtRiskStudentsQuery{
		From:    win.From,
		To:      win.To,
		ClassID: q.Get("class_id"),
		MinRisk: level,
	}, projections.GetAtRiskStudentsDeps{
		AttendanceStore: s.stores.AttendanceStore,
		MemberStore:     s.stores.MemberStore,
		Metrics:         s.opts.Metrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": win, "students": students})
}

type recordAttendanceRequest struct {
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

func (s *server) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req recordAttendanceRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	day, err := attendance.ParseDate(req.Date)
	if err != nil {
		writeError(w, fmt.Errorf("%w: date: %w", domainerr.ErrInvalidInput, err))
		return
	}
	rec, err := orchestrators.ExecuteRecordAttendance(r.Context(), orchestrators.RecordAttendanceInput{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Date:      day,
		Status:    req.Status,
		Notes:     req.Notes,
	}, orchestrators.RecordAttendanceDeps{AttendanceStore: s.stores.AttendanceStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type updateAttendanceRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (s *server) handleUpdateAttendance(w http.ResponseWriter, r *http.Request) {
	var req updateAttendanceRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := orchestrators.ExecuteUpdateAttendance(r.Context(), orchestrators.UpdateAttendanceInput{
		ID:     r.PathValue("id"),
		Status: req.Status,
		Notes:  req.Notes,
	}, orchestrators.UpdateAttendanceDeps{AttendanceStore: s.stores.AttendanceStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
