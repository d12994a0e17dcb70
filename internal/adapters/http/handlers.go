package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dojo/internal/adapters/gateway"
	"dojo/internal/application/orchestrators"
	"dojo/internal/domain/attendance"
	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/inventory"
	"dojo/internal/domain/member"
	"dojo/internal/domain/payment"
	"dojo/internal/domain/stats"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func timeNowUTC() time.Time {
	return time.Now().UTC()
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", domainerr.ErrInvalidInput, err)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode_response", "error", err)
	}
}

// writeError maps an application error to a status code. Client errors
// carry their message; everything else is logged and hidden.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		internalError(w, err)
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainerr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, orchestrators.ErrChargeDeclined), errors.Is(err, orchestrators.ErrRefundDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, orchestrators.ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, orchestrators.ErrEntryTerminal),
		errors.Is(err, orchestrators.ErrDuplicateMember),
		errors.Is(err, member.ErrAlreadyArchived),
		errors.Is(err, member.ErrNotArchived),
		errors.Is(err, inventory.ErrStockChanged),
		errors.Is(err, payment.ErrRefundChanged):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// window reads from/to (YYYY-MM-DD). Missing bounds default to the
// configured lookback ending today.
func (s *server) window(q url.Values) (stats.Window, error) {
	to := attendance.DateOf(s.now())
	if v := q.Get("to"); v != "" {
		d, err := attendance.ParseDate(v)
		if err != nil {
			return stats.Window{}, fmt.Errorf("%w: to: %w", domainerr.ErrInvalidInput, err)
		}
		to = d
	}
	days := s.opts.Config.Report.LookbackDays
	if days <= 0 {
		days = 28
	}
	from := to.AddDate(0, 0, -(days - 1))
	if v := q.Get("from"); v != "" {
		d, err := attendance.ParseDate(v)
		if err != nil {
			return stats.Window{}, fmt.Errorf("%w: from: %w", domainerr.ErrInvalidInput, err)
		}
		from = d
	}
	w := stats.Window{From: from, To: to}
	if err := w.Validate(); err != nil {
		return stats.Window{}, err
	}
	return w, nil
}

// minRisk reads min_risk, falling back to the configured default.
func (s *server) minRisk(q url.Values) (stats.RiskLevel, error) {
	v := q.Get("min_risk")
	if v == "" {
		v = s.opts.Config.Report.MinRisk
	}
	if v == "" {
		return stats.RiskMedium, nil
	}
	level := stats.RiskLevel(v)
	if level.Rank() < 0 {
		return "", fmt.Errorf("%w: unknown risk level %q", domainerr.ErrInvalidInput, v)
	}
	return level, nil
}

func queryInt(q url.Values, key string, def int) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return def
	}
	return n
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.DB != nil {
		if err := s.opts.DB.PingContext(r.Context()); err != nil {
			slog.Error("healthz_db", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) metricsHandler() http.Handler {
	g := s.opts.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// handlePerf reports request and query latencies for the last window
// (default 5m, capped at 24h).
func (s *server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if s.opts.Collector == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "perf collector disabled"})
		return
	}
	since := 5 * time.Minute
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 || d > 24*time.Hour {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "since must be a duration up to 24h"})
			return
		}
		since = d
	}
	top := queryInt(r.URL.Query(), "top", 10)
	if top < 1 || top > 50 {
		top = 10
	}
	writeJSON(w, http.StatusOK, s.opts.Collector.Snapshot(s.now().Add(-since), top))
}
