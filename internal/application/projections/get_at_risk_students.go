package projections

import (
	"context"
	"fmt"
	"sort"
	"time"

	memberStore "dojo/internal/adapters/storage/member"
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/member"
	"dojo/internal/domain/stats"
)

// GetAtRiskStudentsQuery carries input for the at-risk projection.
type GetAtRiskStudentsQuery struct {
	From    time.Time
	To      time.Time
	ClassID string          // optional
	MinRisk stats.RiskLevel // defaults to medium
}

// GetAtRiskStudentsDeps holds dependencies for the at-risk projection.
type GetAtRiskStudentsDeps struct {
	AttendanceStore AttendanceStore
	MemberStore     MemberStore
	Metrics         EngineObserver
}

// AtRiskStudent is one student whose attendance needs follow-up.
type AtRiskStudent struct {
	StudentID      string          `json:"student_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email,omitempty"`
	TotalSessions  int             `json:"total_sessions"`
	AbsentCount    int             `json:"absent_count"`
	AttendanceRate int             `json:"attendance_rate"`
	RiskLevel      stats.RiskLevel `json:"risk_level"`
}

// QueryGetAtRiskStudents returns students at or above MinRisk, lowest
// attendance first. Archived members are left out; students with no member
// row are kept under their id.
func QueryGetAtRiskStudents(ctx context.Context, query GetAtRiskStudentsQuery, deps GetAtRiskStudentsDeps) ([]AtRiskStudent, error) {
	if query.MinRisk == "" {
		query.MinRisk = stats.RiskMedium
	}
	if query.MinRisk.Rank() < 0 {
		return nil, domainerr.Invalidf("unknown risk level %q", query.MinRisk)
	}

	set, err := QueryGetAttendanceStats(ctx, GetAttendanceStatsQuery{
		From:    query.From,
		To:      query.To,
		ClassID: query.ClassID,
		GroupBy: stats.GroupByStudent,
	}, GetAttendanceStatsDeps{AttendanceStore: deps.AttendanceStore, Metrics: deps.Metrics})
	if err != nil {
		return nil, err
	}

	var flagged []stats.Rollup
	var ids []string
	for _, r := range set.Rollups {
		if r.RiskLevel.Rank() >= query.MinRisk.Rank() {
			flagged = append(flagged, r)
			ids = append(ids, r.Key)
		}
	}
	if len(flagged) == 0 {
		return []AtRiskStudent{}, nil
	}

	members, err := deps.MemberStore.List(ctx, memberStore.ListFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	byID := make(map[string]member.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	out := make([]AtRiskStudent, 0, len(flagged))
	for _, r := range flagged {
		s := AtRiskStudent{
			StudentID:      r.Key,
			Name:           r.Key,
			TotalSessions:  r.TotalSessions,
			AbsentCount:    r.AbsentCount,
			AttendanceRate: r.AttendanceRate,
			RiskLevel:      r.RiskLevel,
		}
		if m, ok := byID[r.Key]; ok {
			if m.Status == member.StatusArchived {
				continue
			}
			s.Name = m.Name
			s.Email = m.Email
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AttendanceRate != out[j].AttendanceRate {
			return out[i].AttendanceRate < out[j].AttendanceRate
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}
