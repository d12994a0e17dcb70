package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"dojo/internal/adapters/email"
	"dojo/internal/adapters/gateway"
	web "dojo/internal/adapters/http"
	"dojo/internal/adapters/http/perf"
	"dojo/internal/adapters/storage"
	attendanceStore "dojo/internal/adapters/storage/attendance"
	inventoryStore "dojo/internal/adapters/storage/inventory"
	memberStore "dojo/internal/adapters/storage/member"
	membershipStore "dojo/internal/adapters/storage/membership"
	outboxStore "dojo/internal/adapters/storage/outbox"
	paymentStore "dojo/internal/adapters/storage/payment"
	preferenceStore "dojo/internal/adapters/storage/preference"
	"dojo/internal/application/orchestrators"
	"dojo/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := perf.NewMetrics(registry)
	collector := perf.NewCollector(perf.DefaultRingSize)

	timedDB := storage.NewTimedDB(db, storage.TimingOptions{
		Collector: collector,
		Metrics:   metrics,
		SlowQuery: cfg.SlowQuery,
	})
	stores := web.Stores{
		AttendanceStore: attendanceStore.NewSQLiteStore(timedDB),
		MemberStore:     memberStore.NewSQLiteStore(timedDB),
		InventoryStore:  inventoryStore.NewSQLiteStore(timedDB),
		PaymentStore:    paymentStore.NewSQLiteStore(timedDB),
		MembershipStore: membershipStore.NewSQLiteStore(timedDB),
		PreferenceStore: preferenceStore.NewSQLiteStore(timedDB),
		OutboxStore:     outboxStore.NewSQLiteStore(timedDB),
	}

	opts := web.Options{
		Config:      cfg,
		EmailSender: newSender(cfg),
		Collector:   collector,
		Metrics:     metrics,
		Gatherer:    registry,
		DB:          timedDB,
	}
	opts.Gateway, opts.Verifier = newGateway(cfg)

	handler, err := web.NewMux(ctx, stores, opts)
	if err != nil {
		return err
	}

	stopWorker := orchestrators.StartOutboxWorker(ctx, web.OutboxRetryDeps(stores.OutboxStore, opts), cfg.Outbox.Interval)
	defer stopWorker()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting",
			"version", version,
			"addr", cfg.Addr,
			"env", cfg.Env,
			"schema", storage.LatestSchemaVersion(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newGateway picks Midtrans when a server key is configured. The manual
// gateway accepts every charge and is meant for front-desk payments; it has
// no Verifier, so processor notifications are not served.
func newGateway(cfg config.Config) (gateway.Gateway, gateway.Verifier) {
	if cfg.Gateway.MidtransServerKey != "" {
		g := gateway.NewMidtransGateway(cfg.Gateway.MidtransServerKey, cfg.Gateway.Production)
		slog.Info("gateway_configured", "provider", "midtrans", "production", cfg.Gateway.Production)
		return g, g
	}
	if cfg.IsProduction() {
		slog.Warn("gateway_manual_in_production", "hint", "set DOJO_MIDTRANS_SERVER_KEY for card charges")
	}
	slog.Warn("gateway_notifications_disabled", "reason", "manual gateway has no server key to verify signatures")
	return gateway.NewManualGateway(), nil
}

func newSender(cfg config.Config) email.Sender {
	if cfg.Email.ResendKey != "" {
		slog.Info("email_configured", "provider", "resend")
		return email.NewResendSender(cfg.Email.ResendKey, cfg.Email.From)
	}
	if cfg.IsProduction() {
		slog.Warn("email_disabled_in_production", "hint", "set DOJO_RESEND_KEY for real delivery")
	}
	return email.NewNoopSender()
}
