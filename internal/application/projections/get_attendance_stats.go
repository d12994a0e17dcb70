package projections

import (
	"context"
	"fmt"
	"time"

	attendanceStore "dojo/internal/adapters/storage/attendance"
	"dojo/internal/domain/stats"
)

// GetAttendanceStatsQuery carries input for the attendance stats projection.
type GetAttendanceStatsQuery struct {
	From    time.Time
	To      time.Time
	ClassID string // optional
	GroupBy string // student (default) or class
}

// GetAttendanceStatsDeps holds dependencies for the attendance stats projection.
type GetAttendanceStatsDeps struct {
	AttendanceStore AttendanceStore
	Metrics         EngineObserver
}

// QueryGetAttendanceStats loads the window's attendance and aggregates it.
// PRE: query.From <= query.To
// POST: Returns rollups in first-seen order plus the weekly trend
func QueryGetAttendanceStats(ctx context.Context, query GetAttendanceStatsQuery, deps GetAttendanceStatsDeps) (stats.RollupSet, error) {
	if query.GroupBy == "" {
		query.GroupBy = stats.GroupByStudent
	}
	window := stats.Window{From: query.From, To: query.To}
	if err := window.Validate(); err != nil {
		return stats.RollupSet{}, err
	}

	records, err := deps.AttendanceStore.List(ctx, attendanceStore.ListFilter{
		From:    query.From,
		To:      query.To,
		ClassID: query.ClassID,
	})
	if err != nil {
		return stats.RollupSet{}, fmt.Errorf("list attendance: %w", err)
	}

	set, err := stats.AggregateAttendance(records, window, query.GroupBy)
	observe(deps.Metrics, "aggregate_attendance", err)
	return set, err
}
