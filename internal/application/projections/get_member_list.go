package projections

import (
	"context"
	"fmt"
	"time"

	attendanceStore "dojo/internal/adapters/storage/attendance"
	memberStore "dojo/internal/adapters/storage/member"
	"dojo/internal/application/listutil"
	"dojo/internal/domain/stats"
)

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	Status string // optional
	From   time.Time
	To     time.Time
	Page   listutil.PageParams
}

// MemberSummary is a roster row with the member's attendance in the window.
type MemberSummary struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Status           string          `json:"status"`
	HasPaymentMethod bool            `json:"has_payment_method"`
	TotalSessions    int             `json:"total_sessions"`
	AttendanceRate   int             `json:"attendance_rate"`
	RiskLevel        stats.RiskLevel `json:"risk_level,omitempty"` // empty with no sessions
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Members  []MemberSummary   `json:"members"`
	PageInfo listutil.PageInfo `json:"page_info"`
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	MemberStore     MemberStore
	AttendanceStore AttendanceStore
	Metrics         EngineObserver
}

// QueryGetMemberList pages through the roster in name order, annotating each
// member with their attendance rate and risk level for the window.
// PRE: From <= To
// POST: Members holds at most Page.PerPage rows
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	window := stats.Window{From: query.From, To: query.To}
	if err := window.Validate(); err != nil {
		return GetMemberListResult{}, err
	}

	members, err := deps.MemberStore.List(ctx, memberStore.ListFilter{Status: query.Status})
	if err != nil {
		return GetMemberListResult{}, fmt.Errorf("list members: %w", err)
	}
	info := listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, len(members))
	page := listutil.Slice(members, info)

	rollups := make(map[string]stats.Rollup, len(page))
	if len(page) > 0 {
		records, err := deps.AttendanceStore.List(ctx, attendanceStore.ListFilter{From: query.From, To: query.To})
		if err != nil {
			return GetMemberListResult{}, fmt.Errorf("list attendance: %w", err)
		}
		set, err := stats.AggregateAttendance(records, window, stats.GroupByStudent)
		observe(deps.Metrics, "aggregate_attendance", err)
		if err != nil {
			return GetMemberListResult{}, err
		}
		for _, r := range set.Rollups {
			rollups[r.Key] = r
		}
	}

	out := make([]MemberSummary, 0, len(page))
	for _, m := range page {
		r := rollups[m.ID]
		out = append(out, MemberSummary{
			ID:               m.ID,
			Name:             m.Name,
			Email:            m.Email,
			Status:           m.Status,
			HasPaymentMethod: m.HasStoredPaymentMethod(),
			TotalSessions:    r.TotalSessions,
			AttendanceRate:   r.AttendanceRate,
			RiskLevel:        r.RiskLevel,
		})
	}
	return GetMemberListResult{Members: out, PageInfo: info}, nil
}
