package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"dojo/internal/application/projections"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/stats"
)

// SendRiskReportInput selects the reporting window and audience.
type SendRiskReportInput struct {
	From       time.Time       `validate:"required"`
	To         time.Time       `validate:"required,gtefield=From"`
	MinRisk    stats.RiskLevel `validate:"omitempty,oneof=low medium high"`
	Recipients []string        `validate:"required_unless=DryRun true,dive,email"`
	ReplyTo    string          `validate:"omitempty,email"`
	// DryRun builds the report without sending it.
	DryRun bool
}

// SendRiskReportDeps holds dependencies for SendRiskReport.
type SendRiskReportDeps struct {
	AttendanceStore projections.AttendanceStore
	MemberStore     projections.MemberStore
	InventoryStore  projections.InventoryStore
	Metrics         projections.EngineObserver
	Email           EmailDeps
}

// RiskReport is the staff digest of students and stock needing attention.
type RiskReport struct {
	Subject  string                      `json:"subject"`
	Markdown string                      `json:"markdown"`
	Students []projections.AtRiskStudent `json:"students"`
	Reorder  []projections.ItemStatus    `json:"reorder"`
	Delivery *Delivery                   `json:"delivery,omitempty"`
}

// ExecuteSendRiskReport builds the at-risk and reorder digest for the window
// and emails it to staff. A send failure queues the email in the outbox.
// PRE: From <= To
// POST: report returned; sent or queued unless DryRun
func ExecuteSendRiskReport(ctx context.Context, input SendRiskReportInput, deps SendRiskReportDeps) (RiskReport, error) {
	if err := validateInput(input); err != nil {
		return RiskReport{}, err
	}

	var report RiskReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		students, err := projections.QueryGetAtRiskStudents(gctx,
			projections.GetAtRiskStudentsQuery{From: input.From, To: input.To, MinRisk: input.MinRisk},
			projections.GetAtRiskStudentsDeps{AttendanceStore: deps.AttendanceStore, MemberStore: deps.MemberStore, Metrics: deps.Metrics})
		report.Students = students
		return err
	})
	g.Go(func() error {
		inv, err := projections.QueryGetInventoryStats(gctx, projections.GetInventoryStatsQuery{},
			projections.GetInventoryStatsDeps{InventoryStore: deps.InventoryStore, Metrics: deps.Metrics})
		report.Reorder = inv.NeedsReorder
		return err
	})
	if err := g.Wait(); err != nil {
		return RiskReport{}, err
	}

	from := input.From.Format(attendance.DateLayout)
	to := input.To.Format(attendance.DateLayout)
	report.Subject = fmt.Sprintf("Attendance and stock report %s to %s", from, to)
	report.Markdown = riskReportMarkdown(from, to, report.Students, report.Reorder)

	if input.DryRun {
		return report, nil
	}
	req, err := markdownEmail(input.Recipients, input.ReplyTo, report.Subject, report.Markdown)
	if err != nil {
		return RiskReport{}, err
	}
	d, err := deliverEmail(ctx, req, deps.Email)
	if err != nil {
		return report, err
	}
	report.Delivery = &d
	slog.Info("risk_report_delivered", "students", len(report.Students), "reorder", len(report.Reorder),
		"sent", d.Sent, "outbox_id", d.OutboxID)
	return report, nil
}

func riskReportMarkdown(from, to string, students []projections.AtRiskStudent, reorder []projections.ItemStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Attendance and stock report\n\n%s to %s\n\n", from, to)

	b.WriteString("## Students at risk\n\n")
	if len(students) == 0 {
		b.WriteString("No students at risk in this window.\n\n")
	} else {
		b.WriteString("| Student | Sessions | Absent | Attendance | Risk |\n|---|---|---|---|---|\n")
		for _, s := range students {
			fmt.Fprintf(&b, "| %s | %d | %d | %d%% | %s |\n",
				escapeCell(s.Name), s.TotalSessions, s.AbsentCount, s.AttendanceRate, s.RiskLevel)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Stock to reorder\n\n")
	if len(reorder) == 0 {
		b.WriteString("Nothing to reorder.\n")
		return b.String()
	}
	b.WriteString("| Item | Category | In stock | Reorder at | Status |\n|---|---|---|---|---|\n")
	for _, it := range reorder {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %s |\n",
			escapeCell(it.Name), escapeCell(it.Category), it.CurrentStock, it.MinStockLevel, it.StockStatus)
	}
	return b.String()
}
