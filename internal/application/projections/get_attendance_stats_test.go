package projections

import (
	"context"
	"errors"
	"testing"

	"dojo/internal/domain/attendance"
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/stats"
)

func TestQueryGetAttendanceStats(t *testing.T) {
	store := &mockAttendanceStore{records: []attendance.Record{
		mark("s1", "c1", 2, attendance.StatusPresent),
		mark("s1", "c1", 4, attendance.StatusAbsent),
		mark("s2", "c2", 3, attendance.StatusPresent),
		mark("s2", "c1", 20, attendance.StatusPresent), // outside window
	}}
	obs := &mockEngineObserver{}

	set, err := QueryGetAttendanceStats(context.Background(),
		GetAttendanceStatsQuery{From: day(1), To: day(14)},
		GetAttendanceStatsDeps{AttendanceStore: store, Metrics: obs})
	if err != nil {
		t.Fatalf("QueryGetAttendanceStats: %v", err)
	}
	if set.GroupBy != stats.GroupByStudent {
		t.Errorf("GroupBy = %q, want student default", set.GroupBy)
	}
	if set.TotalRecords != 3 || len(set.Rollups) != 2 {
		t.Errorf("set = %+v", set)
	}
	if set.Rollups[0].Key != "s1" || set.Rollups[0].AttendanceRate != 50 || set.Rollups[0].RiskLevel != stats.RiskHigh {
		t.Errorf("s1 rollup = %+v", set.Rollups[0])
	}
	if len(set.WeeklyTrend) != 2 {
		t.Errorf("weekly buckets = %d, want 2", len(set.WeeklyTrend))
	}
	if obs.runs["aggregate_attendance"] != 1 {
		t.Errorf("engine runs = %v", obs.runs)
	}
}

func TestQueryGetAttendanceStats_ByClass(t *testing.T) {
	store := &mockAttendanceStore{records: []attendance.Record{
		mark("s1", "c1", 2, attendance.StatusPresent),
		mark("s2", "c2", 3, attendance.StatusPresent),
	}}
	set, err := QueryGetAttendanceStats(context.Background(),
		GetAttendanceStatsQuery{From: day(1), To: day(7), ClassID: "c1", GroupBy: stats.GroupByClass},
		GetAttendanceStatsDeps{AttendanceStore: store})
	if err != nil {
		t.Fatalf("QueryGetAttendanceStats: %v", err)
	}
	if store.last.ClassID != "c1" {
		t.Errorf("class filter not passed to store: %+v", store.last)
	}
	if len(set.Rollups) != 1 || set.Rollups[0].Key != "c1" {
		t.Errorf("rollups = %+v", set.Rollups)
	}
}

func TestQueryGetAttendanceStats_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := QueryGetAttendanceStats(ctx, GetAttendanceStatsQuery{From: day(9), To: day(1)},
		GetAttendanceStatsDeps{AttendanceStore: &mockAttendanceStore{}})
	if !errors.Is(err, domainerr.ErrInvalidInput) {
		t.Errorf("inverted window err = %v", err)
	}

	boom := errors.New("disk gone")
	_, err = QueryGetAttendanceStats(ctx, GetAttendanceStatsQuery{From: day(1), To: day(9)},
		GetAttendanceStatsDeps{AttendanceStore: &mockAttendanceStore{err: boom}})
	if !errors.Is(err, boom) || errors.Is(err, domainerr.ErrInvalidInput) {
		t.Errorf("store err = %v", err)
	}
}
