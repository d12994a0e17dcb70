package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dojo/internal/adapters/email"
	"dojo/internal/adapters/storage"
	attendanceStore "dojo/internal/adapters/storage/attendance"
	inventoryStore "dojo/internal/adapters/storage/inventory"
	memberStore "dojo/internal/adapters/storage/member"
	outboxStore "dojo/internal/adapters/storage/outbox"
	paymentStore "dojo/internal/adapters/storage/payment"
	"dojo/internal/config"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/stats"
)

// env is what commands need from the outside world. Tests swap every field.
type env struct {
	out        io.Writer
	loadConfig func() (config.Config, error)
	newSender  func(config.Config) email.Sender
	now        func() time.Time
}

func defaultEnv() env {
	return env{
		out:        os.Stdout,
		loadConfig: config.Load,
		newSender:  newSender,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// app is the state shared by subcommands once the root pre-run has loaded
// configuration and opened the database.
type app struct {
	env
	cfg     config.Config
	dbPath  string
	jsonOut bool

	db         *sql.DB
	attendance attendanceStore.Store
	members    memberStore.Store
	inventory  inventoryStore.Store
	payments   paymentStore.Store
	outbox     outboxStore.Store
}

// execute runs one dojoctl invocation. The database opened by the root
// pre-run is closed on every path, including command errors.
func execute(ctx context.Context, e env, args []string) error {
	a := &app{env: e}
	defer a.close()
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dojoctl",
		Short:         "Operator tools for the dojo statistics service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open()
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (defaults to DOJO_DB_PATH)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")
	root.SetOut(a.out)

	root.AddCommand(
		newMigrateCmd(a),
		newMembersCmd(a),
		newReportCmd(a),
		newPaymentsCmd(a),
		newOutboxCmd(a),
	)
	return root
}

// open loads configuration and opens (and migrates) the database.
func (a *app) open() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	a.db = db
	a.attendance = attendanceStore.NewSQLiteStore(db)
	a.members = memberStore.NewSQLiteStore(db)
	a.inventory = inventoryStore.NewSQLiteStore(db)
	a.payments = paymentStore.NewSQLiteStore(db)
	a.outbox = outboxStore.NewSQLiteStore(db)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// window resolves --from/--to the way the HTTP API does: to defaults to
// today and from to the configured lookback before it.
func (a *app) window(fromFlag, toFlag string) (stats.Window, error) {
	to := attendance.DateOf(a.now())
	if toFlag != "" {
		d, err := attendance.ParseDate(toFlag)
		if err != nil {
			return stats.Window{}, fmt.Errorf("%w: --to: %w", domainerr.ErrInvalidInput, err)
		}
		to = d
	}
	days := a.cfg.Report.LookbackDays
	if days <= 0 {
		days = 28
	}
	from := to.AddDate(0, 0, -(days - 1))
	if fromFlag != "" {
		d, err := attendance.ParseDate(fromFlag)
		if err != nil {
			return stats.Window{}, fmt.Errorf("%w: --from: %w", domainerr.ErrInvalidInput, err)
		}
		from = d
	}
	w := stats.Window{From: from, To: to}
	if err := w.Validate(); err != nil {
		return stats.Window{}, err
	}
	return w, nil
}

func (a *app) minRisk(flag string) (stats.RiskLevel, error) {
	if flag == "" {
		flag = a.cfg.Report.MinRisk
	}
	level := stats.RiskLevel(flag)
	if level == "" {
		level = stats.RiskMedium
	}
	if level.Rank() < 0 {
		return "", domainerr.Invalidf("unknown risk level %q", flag)
	}
	return level, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newSender delivers through Resend when a key is configured; otherwise
// messages are only logged.
func newSender(cfg config.Config) email.Sender {
	if cfg.Email.ResendKey != "" {
		return email.NewResendSender(cfg.Email.ResendKey, cfg.Email.From)
	}
	return email.NewNoopSender()
}
