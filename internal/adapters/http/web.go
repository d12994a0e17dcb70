package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dojo/internal/adapters/email"
	"dojo/internal/adapters/gateway"
	"dojo/internal/adapters/http/middleware"
	"dojo/internal/adapters/http/perf"
	attendanceStore "dojo/internal/adapters/storage/attendance"
	inventoryStore "dojo/internal/adapters/storage/inventory"
	memberStore "dojo/internal/adapters/storage/member"
	membershipStore "dojo/internal/adapters/storage/membership"
	outboxStore "dojo/internal/adapters/storage/outbox"
	paymentStore "dojo/internal/adapters/storage/payment"
	preferenceStore "dojo/internal/adapters/storage/preference"
	"dojo/internal/config"
)

// NotificationPath receives processor webhooks. It is exempt from CSRF
// because every notification carries a signature.
const NotificationPath = "/api/payments/notifications"

// Stores holds all storage dependencies.
type Stores struct {
	AttendanceStore attendanceStore.Store
	MemberStore     memberStore.Store
	InventoryStore  inventoryStore.Store
	PaymentStore    paymentStore.Store
	MembershipStore membershipStore.Store
	PreferenceStore preferenceStore.Store
	OutboxStore     outboxStore.Store
}

// Pinger reports database liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options wires the collaborators that are not stores. Gateway, Verifier,
// EmailSender, Collector, Metrics, Gatherer and DB are optional. Without a
// Verifier the notification route is not registered.
type Options struct {
	Config      config.Config
	Gateway     gateway.Gateway
	Verifier    gateway.Verifier
	EmailSender email.Sender
	Collector   *perf.Collector
	Metrics     *perf.Metrics
	Gatherer    prometheus.Gatherer
	DB          Pinger
	Now         func() time.Time
}

type server struct {
	stores Stores
	opts   Options
	now    func() time.Time
}

// NewMux wires the JSON API and its middleware. The context bounds the rate
// limiter's sweeper.
// PRE: every store in s is set
// POST: returned handler serves every /api route
func NewMux(ctx context.Context, s Stores, opts Options) (http.Handler, error) {
	csrfKey, err := loadCSRFKey(opts.Config)
	if err != nil {
		return nil, err
	}
	srv := &server{stores: s, opts: opts, now: opts.Now}
	if srv.now == nil {
		srv.now = timeNowUTC
	}

	mux := http.NewServeMux()
	srv.registerRoutes(mux)

	rate := opts.Config.HTTP.RatePerSecond
	if rate <= 0 {
		rate = config.Default().HTTP.RatePerSecond
	}
	limiter := middleware.NewRateLimiter(ctx, rate, time.Second)

	// Timing must wrap the mux directly so r.Pattern is set when it reads it.
	return middleware.Chain(mux,
		middleware.Timing(middleware.TimingOptions{
			Collector:   opts.Collector,
			Metrics:     opts.Metrics,
			SlowRequest: opts.Config.SlowRequest,
		}),
		middleware.Recover,
		middleware.CSRF(csrfKey, opts.Config.HTTP.SecureCookies, opts.Config.HTTP.TrustedOrigins, NotificationPath),
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
	), nil
}

func (s *server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metricsHandler())
	mux.HandleFunc("GET /debug/perf", s.handlePerf)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/attendance/stats", s.handleAttendanceStats)
	mux.HandleFunc("GET /api/attendance/at-risk", s.handleAtRisk)
	mux.HandleFunc("POST /api/attendance", s.handleRecordAttendance)
	mux.HandleFunc("PATCH /api/attendance/{id}", s.handleUpdateAttendance)

	mux.HandleFunc("GET /api/members", s.handleListMembers)
	mux.HandleFunc("POST /api/members", s.handleRegisterMember)
	mux.HandleFunc("POST /api/members/{id}/archive", s.handleArchiveMember)
	mux.HandleFunc("POST /api/members/{id}/restore", s.handleRestoreMember)

	mux.HandleFunc("GET /api/inventory", s.handleInventoryStats)
	mux.HandleFunc("GET /api/inventory/{id}/movements", s.handleMovementHistory)
	mux.HandleFunc("POST /api/inventory/{id}/movements", s.handleRecordMovement)

	mux.HandleFunc("GET /api/payments", s.handlePaymentHistory)
	mux.HandleFunc("POST /api/payments/{id}/refunds", s.handleRefund)
	if opts.Verifier != nil {
		mux.HandleFunc("POST "+NotificationPath, s.handleNotification)
	}
	mux.HandleFunc("POST /api/memberships", s.handleAssignMembership)

	mux.HandleFunc("GET /api/preferences/{owner}", s.handleGetPreferences)
	mux.HandleFunc("PUT /api/preferences/{owner}", s.handleSavePreferences)

	mux.HandleFunc("POST /api/reports/risk", s.handleRiskReport)

	mux.HandleFunc("GET /api/outbox", s.handleListOutbox)
	mux.HandleFunc("POST /api/outbox/{id}/retry", s.handleRetryOutbox)
}

// loadCSRFKey decodes the configured CSRF secret (hex, 32 bytes).
// In production the key must be set. In development a random key is
// generated per startup.
func loadCSRFKey(cfg config.Config) ([]byte, error) {
	if keyHex := cfg.HTTP.CSRFKey; keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("csrf key must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if cfg.IsProduction() {
		return nil, errors.New("csrf key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("csrf_random_key", "hint", "set DOJO_CSRF_KEY so tokens survive restarts")
	return key, nil
}
