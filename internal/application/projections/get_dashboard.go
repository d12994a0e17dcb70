package projections

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	paymentStore "dojo/internal/adapters/storage/payment"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/payment"
	"dojo/internal/domain/stats"
)

// GetDashboardQuery carries input for the staff dashboard.
type GetDashboardQuery struct {
	From    time.Time
	To      time.Time
	MinRisk stats.RiskLevel
}

// GetDashboardDeps holds dependencies for the staff dashboard.
type GetDashboardDeps struct {
	AttendanceStore AttendanceStore
	MemberStore     MemberStore
	InventoryStore  InventoryStore
	PaymentStore    PaymentStore
	Metrics         EngineObserver
}

// DashboardResult is every panel of the staff dashboard.
type DashboardResult struct {
	Window     stats.Window         `json:"window"`
	Attendance stats.RollupSet      `json:"attendance"`
	AtRisk     []AtRiskStudent      `json:"at_risk"`
	Inventory  InventoryStatsResult `json:"inventory"`
	Payments   stats.PaymentStats   `json:"payments"`
}

// QueryGetDashboard builds the dashboard panels concurrently. The first
// failing panel cancels the others and its error is returned.
// PRE: query.From <= query.To
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (DashboardResult, error) {
	window := stats.Window{From: query.From, To: query.To}
	if err := window.Validate(); err != nil {
		return DashboardResult{}, err
	}
	res := DashboardResult{Window: window}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		set, err := QueryGetAttendanceStats(gctx, GetAttendanceStatsQuery{From: query.From, To: query.To},
			GetAttendanceStatsDeps{AttendanceStore: deps.AttendanceStore, Metrics: deps.Metrics})
		res.Attendance = set
		return err
	})
	g.Go(func() error {
		students, err := QueryGetAtRiskStudents(gctx, GetAtRiskStudentsQuery{From: query.From, To: query.To, MinRisk: query.MinRisk},
			GetAtRiskStudentsDeps{AttendanceStore: deps.AttendanceStore, MemberStore: deps.MemberStore, Metrics: deps.Metrics})
		res.AtRisk = students
		return err
	})
	g.Go(func() error {
		inv, err := QueryGetInventoryStats(gctx, GetInventoryStatsQuery{},
			GetInventoryStatsDeps{InventoryStore: deps.InventoryStore, Metrics: deps.Metrics})
		res.Inventory = inv
		return err
	})
	g.Go(func() error {
		records, err := deps.PaymentStore.List(gctx, paymentStore.ListFilter{})
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		res.Payments = stats.AggregatePayments(inWindow(records, window))
		return nil
	})

	if err := g.Wait(); err != nil {
		return DashboardResult{}, err
	}
	return res, nil
}

// inWindow keeps payments dated within the window's calendar days.
func inWindow(records []payment.Record, w stats.Window) []payment.Record {
	from := attendance.DateOf(w.From)
	to := attendance.DateOf(w.To).AddDate(0, 0, 1)
	var out []payment.Record
	for _, r := range records {
		if !r.PaymentDate.Before(from) && r.PaymentDate.Before(to) {
			out = append(out, r)
		}
	}
	return out
}
