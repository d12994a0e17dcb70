package stats

import (
	"math"
	"time"

	"dojo/internal/domain/attendance"
	"dojo/internal/domain/domainerr"
)

// Grouping keys for attendance rollups.
const (
	GroupByStudent = "student"
	GroupByClass   = "class"
)

const day = 24 * time.Hour

// Window is an inclusive range of calendar dates.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Validate rejects inverted windows.
func (w Window) Validate() error {
	if w.From.IsZero() || w.To.IsZero() {
		return domainerr.Invalidf("window bounds must be set")
	}
	if attendance.DateOf(w.From).After(attendance.DateOf(w.To)) {
		return domainerr.Invalidf("window from %s is after to %s",
			w.From.Format(attendance.DateLayout), w.To.Format(attendance.DateLayout))
	}
	return nil
}

// Days returns the number of calendar days the window covers, inclusive.
func (w Window) Days() int {
	return int(attendance.DateOf(w.To).Sub(attendance.DateOf(w.From))/day) + 1
}

// Rollup is the per-student or per-class attendance summary.
type Rollup struct {
	Key            string    `json:"key"`
	TotalSessions  int       `json:"total_sessions"`
	PresentCount   int       `json:"present_count"`
	AbsentCount    int       `json:"absent_count"`
	LateCount      int       `json:"late_count"`
	ExcusedCount   int       `json:"excused_count"`
	AttendanceRate int       `json:"attendance_rate"`
	RiskLevel      RiskLevel `json:"risk_level,omitempty"` // student grouping only
}

// WeekBucket is one 7-day slice of the weekly trend.
type WeekBucket struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	TotalSessions  int       `json:"total_sessions"`
	PresentCount   int       `json:"present_count"`
	AttendanceRate int       `json:"attendance_rate"`
}

// RollupSet is the output of AggregateAttendance.
type RollupSet struct {
	GroupBy      string       `json:"group_by"`
	Window       Window       `json:"window"`
	Rollups      []Rollup     `json:"rollups"`
	WeeklyTrend  []WeekBucket `json:"weekly_trend"`
	TotalRecords int          `json:"total_records"`
	OverallRate  int          `json:"overall_rate"`
}

// AttendanceRate returns round(present/total*100), or 0 when total is 0.
func AttendanceRate(present, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

// AggregateAttendance reduces records into per-key rollups and a weekly trend.
// Records are not re-filtered by date; callers slice by window before calling.
// Rollups keep the order in which each key was first seen.
// PRE: window.From <= window.To; groupBy is student or class
// POST: Σ(present+absent+late+excused) over rollups == len(records)
func AggregateAttendance(records []attendance.Record, window Window, groupBy string) (RollupSet, error) {
	if err := window.Validate(); err != nil {
		return RollupSet{}, err
	}
	if groupBy != GroupByStudent && groupBy != GroupByClass {
		return RollupSet{}, domainerr.Invalidf("unknown grouping %q", groupBy)
	}

	index := make(map[string]int)
	rollups := make([]Rollup, 0)
	present := 0

	for _, r := range records {
		key := r.StudentID
		if groupBy == GroupByClass {
			key = r.ClassID
		}
		i, ok := index[key]
		if !ok {
			i = len(rollups)
			index[key] = i
			rollups = append(rollups, Rollup{Key: key})
		}
		ru := &rollups[i]
		switch r.Status {
		case attendance.StatusPresent:
			ru.PresentCount++
			present++
		case attendance.StatusAbsent:
			ru.AbsentCount++
		case attendance.StatusLate:
			ru.LateCount++
		case attendance.StatusExcused:
			ru.ExcusedCount++
		default:
			return RollupSet{}, domainerr.Invalidf("record %q has unknown status %q", r.ID, r.Status)
		}
		ru.TotalSessions++
	}

	for i := range rollups {
		ru := &rollups[i]
		ru.AttendanceRate = AttendanceRate(ru.PresentCount, ru.TotalSessions)
		if groupBy == GroupByStudent {
			level, err := ClassifyAttendanceRisk(float64(ru.AttendanceRate))
			if err != nil {
				return RollupSet{}, err
			}
			ru.RiskLevel = level
		}
	}

	return RollupSet{
		GroupBy:      groupBy,
		Window:       window,
		Rollups:      rollups,
		WeeklyTrend:  WeeklyTrend(records, window),
		TotalRecords: len(records),
		OverallRate:  AttendanceRate(present, len(records)),
	}, nil
}

// WeeklyTrend partitions the window into consecutive 7-day buckets starting
// at window.From; the last bucket ends at window.To and may be partial.
// Records outside the window fall in no bucket.
// PRE: window is valid
func WeeklyTrend(records []attendance.Record, window Window) []WeekBucket {
	from := attendance.DateOf(window.From)
	to := attendance.DateOf(window.To)
	n := (window.Days() + 6) / 7

	buckets := make([]WeekBucket, n)
	for i := range buckets {
		start := from.AddDate(0, 0, 7*i)
		end := start.AddDate(0, 0, 6)
		if end.After(to) {
			end = to
		}
		buckets[i] = WeekBucket{Start: start, End: end}
	}

	for _, r := range records {
		d := attendance.DateOf(r.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		b := &buckets[int(d.Sub(from)/day)/7]
		b.TotalSessions++
		if r.Status == attendance.StatusPresent {
			b.PresentCount++
		}
	}

	for i := range buckets {
		buckets[i].AttendanceRate = AttendanceRate(buckets[i].PresentCount, buckets[i].TotalSessions)
	}
	return buckets
}
