package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"dojo/internal/application/projections"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/stats"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// money renders minor units as a two-decimal amount.
func money(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func day(t time.Time) string {
	return t.Format(attendance.DateLayout)
}

func renderAttendance(w io.Writer, set stats.RollupSet) error {
	fmt.Fprintf(w, "Attendance %s to %s: %d records, overall %d%%\n\n",
		day(set.Window.From), day(set.Window.To), set.TotalRecords, set.OverallRate)

	rollups := newTable(set.GroupBy, "sessions", "present", "absent", "late", "excused", "rate", "risk")
	for _, r := range set.Rollups {
		rollups.Row(r.Key,
			strconv.Itoa(r.TotalSessions),
			strconv.Itoa(r.PresentCount),
			strconv.Itoa(r.AbsentCount),
			strconv.Itoa(r.LateCount),
			strconv.Itoa(r.ExcusedCount),
			strconv.Itoa(r.AttendanceRate)+"%",
			string(r.RiskLevel),
		)
	}
	fmt.Fprintln(w, rollups.Render())

	trend := newTable("week", "sessions", "present", "rate")
	for _, b := range set.WeeklyTrend {
		trend.Row(day(b.Start)+" to "+day(b.End),
			strconv.Itoa(b.TotalSessions),
			strconv.Itoa(b.PresentCount),
			strconv.Itoa(b.AttendanceRate)+"%",
		)
	}
	_, err := fmt.Fprintln(w, trend.Render())
	return err
}

func renderInventory(w io.Writer, res projections.InventoryStatsResult) error {
	s := res.Stats
	fmt.Fprintf(w, "%d items, stock value %s: %d low, %d out, %d overstocked\n\n",
		s.TotalItems, money(s.TotalValue), s.LowStockCount, s.OutOfStockCount, s.OverstockedCount)

	items := newTable("id", "name", "category", "stock", "min", "max", "status")
	for _, it := range res.Items {
		items.Row(it.ID, it.Name, it.Category,
			strconv.Itoa(it.CurrentStock),
			strconv.Itoa(it.MinStockLevel),
			strconv.Itoa(it.MaxStockLevel),
			string(it.StockStatus),
		)
	}
	_, err := fmt.Fprintln(w, items.Render())
	return err
}

func renderGroups(w io.Writer, res projections.PaymentHistoryResult) error {
	fmt.Fprintf(w, "%d payments in %d groups: collected %s, refunded %s, outstanding %s\n\n",
		res.Stats.Count, len(res.Groups), money(res.Stats.Collected), money(res.Stats.Refunded), money(res.Stats.Outstanding))

	groups := newTable("group", "kind", "payments", "total", "status", "from", "to")
	for _, g := range res.Groups {
		kind := "one-off"
		if g.Subscription {
			kind = "subscription"
		}
		groups.Row(g.Title, kind,
			strconv.Itoa(len(g.Payments)),
			money(g.TotalAmount),
			g.Status,
			day(g.DateRange.From),
			day(g.DateRange.To),
		)
	}
	_, err := fmt.Fprintln(w, groups.Render())
	return err
}

func renderMembers(w io.Writer, res projections.GetMemberListResult) error {
	fmt.Fprintf(w, "%d members, page %d of %d\n\n", res.PageInfo.Total, res.PageInfo.Page, res.PageInfo.TotalPages)

	members := newTable("id", "name", "email", "status", "sessions", "rate", "risk")
	for _, m := range res.Members {
		members.Row(m.ID, m.Name, m.Email, m.Status,
			strconv.Itoa(m.TotalSessions),
			strconv.Itoa(m.AttendanceRate)+"%",
			string(m.RiskLevel),
		)
	}
	_, err := fmt.Fprintln(w, members.Render())
	return err
}
