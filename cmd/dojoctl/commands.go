package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	web "dojo/internal/adapters/http"
	"dojo/internal/adapters/storage"
	"dojo/internal/application/listutil"
	"dojo/internal/application/orchestrators"
	"dojo/internal/application/projections"
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/preference"
	"dojo/internal/domain/stats"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		// The root pre-run opens the database, which migrates it.
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := storage.SchemaVersion(a.db)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(map[string]int{"schema_version": v, "latest": storage.LatestSchemaVersion()})
			}
			fmt.Fprintf(a.out, "%s: schema version %d (latest %d)\n", a.cfg.DBPath, v, storage.LatestSchemaVersion())
			return nil
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print statistics reports",
	}
	cmd.AddCommand(newReportAttendanceCmd(a), newReportInventoryCmd(a), newReportRiskCmd(a))
	return cmd
}

func newReportAttendanceCmd(a *app) *cobra.Command {
	var from, to, groupBy, classID string
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Attendance rollups and weekly trend for a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.window(from, to)
			if err != nil {
				return err
			}
			set, err := projections.QueryGetAttendanceStats(cmd.Context(), projections.GetAttendanceStatsQuery{
				From: w.From, To: w.To, ClassID: classID, GroupBy: groupBy,
			}, projections.GetAttendanceStatsDeps{AttendanceStore: a.attendance})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(set)
			}
			return renderAttendance(a.out, set)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&groupBy, "group-by", stats.GroupByStudent, "student or class")
	cmd.Flags().StringVar(&classID, "class", "", "only this class")
	return cmd
}

func newReportInventoryCmd(a *app) *cobra.Command {
	var category, status string
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Stock levels and reorder list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := projections.QueryGetInventoryStats(cmd.Context(),
				projections.GetInventoryStatsQuery{Category: category, Status: status},
				projections.GetInventoryStatsDeps{InventoryStore: a.inventory})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			return renderInventory(a.out, res)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVar(&status, "status", "", "item status (active, discontinued)")
	return cmd
}

func newReportRiskCmd(a *app) *cobra.Command {
	var from, to, minRisk string
	var recipients []string
	var send bool
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Build the at-risk and reorder digest; --send emails it to staff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.window(from, to)
			if err != nil {
				return err
			}
			level, err := a.minRisk(minRisk)
			if err != nil {
				return err
			}
			if len(recipients) == 0 {
				recipients = a.cfg.Email.StaffRecipients
			}
			if send && len(recipients) == 0 {
				return domainerr.Invalidf("no recipients: pass --recipient or set DOJO_STAFF_EMAILS")
			}

			report, err := orchestrators.ExecuteSendRiskReport(cmd.Context(), orchestrators.SendRiskReportInput{
				From:       w.From,
				To:         w.To,
				MinRisk:    level,
				Recipients: recipients,
				ReplyTo:    a.cfg.Email.ReplyTo,
				DryRun:     !send,
			}, orchestrators.SendRiskReportDeps{
				AttendanceStore: a.attendance,
				MemberStore:     a.members,
				InventoryStore:  a.inventory,
				Email: orchestrators.EmailDeps{
					Sender:      a.newSender(a.cfg),
					OutboxStore: a.outbox,
					GenerateID:  uuid.NewString,
					Now:         a.now,
				},
			})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(report)
			}
			fmt.Fprintln(a.out, report.Markdown)
			switch {
			case report.Delivery == nil:
			case report.Delivery.Sent:
				fmt.Fprintf(a.out, "sent to %d recipient(s), message %s\n", len(recipients), report.Delivery.MessageID)
			default:
				fmt.Fprintf(a.out, "send failed; queued as outbox entry %s\n", report.Delivery.OutboxID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&minRisk, "min-risk", "", "lowest risk level listed (low, medium, high)")
	cmd.Flags().StringSliceVar(&recipients, "recipient", nil, "override staff recipients")
	cmd.Flags().BoolVar(&send, "send", false, "email the report instead of printing only")
	return cmd
}

func newPaymentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Inspect payment history",
	}

	var subject string
	groups := &cobra.Command{
		Use:   "groups",
		Short: "Payments reconciled into subscription cycles and one-off charges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := projections.QueryGetPaymentHistory(cmd.Context(), projections.GetPaymentHistoryQuery{
				SubjectID: subject,
				ViewMode:  preference.ViewGrouped,
				Page:      listutil.PageParams{Page: 1, PerPage: listutil.DefaultPerPage},
			}, projections.GetPaymentHistoryDeps{PaymentStore: a.payments})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			return renderGroups(a.out, res)
		},
	}
	groups.Flags().StringVar(&subject, "subject", "", "payer id (default every payer)")
	cmd.AddCommand(groups)
	return cmd
}

func newOutboxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and retry queued emails",
	}

	var id string
	retry := &cobra.Command{
		Use:   "retry",
		Short: "Run one retry pass, or retry a single entry with --id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps := web.OutboxRetryDeps(a.outbox, web.Options{
				Config:      a.cfg,
				EmailSender: a.newSender(a.cfg),
				Now:         a.now,
			})
			if id != "" {
				entry, err := orchestrators.ExecuteRetryOutboxEntry(cmd.Context(), orchestrators.RetryOutboxEntryInput{ID: id}, deps)
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("outbox entry %s not found", id)
				}
				if err != nil {
					return err
				}
				if a.jsonOut {
					return a.printJSON(entry)
				}
				fmt.Fprintf(a.out, "%s: %s after %d attempt(s)\n", entry.ID, entry.Status, entry.Attempts)
				return nil
			}

			res, err := orchestrators.ExecuteOutboxRetry(cmd.Context(), deps)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(res)
			}
			fmt.Fprintf(a.out, "processed %d: %d succeeded, %d failed, %d backing off\n",
				res.Processed, res.Succeeded, res.Failed, res.Skipped)
			return nil
		},
	}
	retry.Flags().StringVar(&id, "id", "", "retry only this entry, ignoring backoff")
	cmd.AddCommand(retry)
	return cmd
}
