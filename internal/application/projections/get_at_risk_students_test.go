package projections

import (
	"context"
	"errors"
	"testing"

	"dojo/internal/domain/attendance"
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/member"
	"dojo/internal/domain/stats"
)

func atRiskFixture() (*mockAttendanceStore, *mockMemberStore) {
	att := &mockAttendanceStore{records: []attendance.Record{
		// s1: 1/4 = 25% high
		mark("s1", "c1", 2, attendance.StatusPresent),
		mark("s1", "c1", 3, attendance.StatusAbsent),
		mark("s1", "c1", 4, attendance.StatusAbsent),
		mark("s1", "c1", 5, attendance.StatusLate),
		// s2: 3/4 = 75% medium
		mark("s2", "c1", 2, attendance.StatusPresent),
		mark("s2", "c1", 3, attendance.StatusPresent),
		mark("s2", "c1", 4, attendance.StatusPresent),
		mark("s2", "c1", 5, attendance.StatusAbsent),
		// s3: 100% low
		mark("s3", "c1", 2, attendance.StatusPresent),
		// s4: archived, 0%
		mark("s4", "c1", 2, attendance.StatusAbsent),
		// s5: no member row, 0%
		mark("s5", "c1", 2, attendance.StatusAbsent),
	}}
	mem := &mockMemberStore{members: []member.Member{
		{ID: "s1", Name: "Ana", Email: "ana@example.com", Status: member.StatusActive},
		{ID: "s2", Name: "Ben", Email: "ben@example.com", Status: member.StatusActive},
		{ID: "s3", Name: "Cy", Email: "cy@example.com", Status: member.StatusActive},
		{ID: "s4", Name: "Dee", Email: "dee@example.com", Status: member.StatusArchived},
	}}
	return att, mem
}

func TestQueryGetAtRiskStudents(t *testing.T) {
	att, mem := atRiskFixture()
	got, err := QueryGetAtRiskStudents(context.Background(),
		GetAtRiskStudentsQuery{From: day(1), To: day(7)},
		GetAtRiskStudentsDeps{AttendanceStore: att, MemberStore: mem})
	if err != nil {
		t.Fatalf("QueryGetAtRiskStudents: %v", err)
	}

	want := []struct {
		id   string
		name string
		rate int
		risk stats.RiskLevel
	}{
		{"s5", "s5", 0, stats.RiskHigh},
		{"s1", "Ana", 25, stats.RiskHigh},
		{"s2", "Ben", 75, stats.RiskMedium},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d students, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		g := got[i]
		if g.StudentID != w.id || g.Name != w.name || g.AttendanceRate != w.rate || g.RiskLevel != w.risk {
			t.Errorf("[%d] = %+v, want %+v", i, g, w)
		}
	}
}

func TestQueryGetAtRiskStudents_HighOnly(t *testing.T) {
	att, mem := atRiskFixture()
	got, err := QueryGetAtRiskStudents(context.Background(),
		GetAtRiskStudentsQuery{From: day(1), To: day(7), MinRisk: stats.RiskHigh},
		GetAtRiskStudentsDeps{AttendanceStore: att, MemberStore: mem})
	if err != nil {
		t.Fatalf("QueryGetAtRiskStudents: %v", err)
	}
	for _, s := range got {
		if s.RiskLevel != stats.RiskHigh {
			t.Errorf("included %+v", s)
		}
	}
	if len(got) != 2 {
		t.Errorf("got %d, want 2", len(got))
	}
}

func TestQueryGetAtRiskStudents_Errors(t *testing.T) {
	att, mem := atRiskFixture()
	ctx := context.Background()

	_, err := QueryGetAtRiskStudents(ctx, GetAtRiskStudentsQuery{From: day(1), To: day(7), MinRisk: "severe"},
		GetAtRiskStudentsDeps{AttendanceStore: att, MemberStore: mem})
	if !errors.Is(err, domainerr.ErrInvalidInput) {
		t.Errorf("unknown risk err = %v", err)
	}

	boom := errors.New("members unavailable")
	_, err = QueryGetAtRiskStudents(ctx, GetAtRiskStudentsQuery{From: day(1), To: day(7)},
		GetAtRiskStudentsDeps{AttendanceStore: att, MemberStore: &mockMemberStore{err: boom}})
	if !errors.Is(err, boom) {
		t.Errorf("member store err = %v", err)
	}

	got, err := QueryGetAtRiskStudents(ctx, GetAtRiskStudentsQuery{From: day(1), To: day(7)},
		GetAtRiskStudentsDeps{AttendanceStore: &mockAttendanceStore{}, MemberStore: mem})
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("empty window = %v, %v; want empty non-nil slice", got, err)
	}
}
