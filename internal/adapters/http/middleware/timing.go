package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dojo/internal/adapters/http/perf"
)

// DefaultSlowRequest is used when TimingOptions.SlowRequest is zero.
const DefaultSlowRequest = 200 * time.Millisecond

// TimingOptions configures Timing. Every field is optional.
type TimingOptions struct {
	Collector   *perf.Collector
	Metrics     *perf.Metrics
	SlowRequest time.Duration
}

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID returns the id Timing assigned to the request, or 0.
func RequestID(ctx context.Context) uint64 {
	id, _ := ctx.Value(requestIDKey).(uint64)
	return id
}

var requestIDCounter atomic.Uint64

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the underlying ResponseWriter.
func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

var statusWriterPool = sync.Pool{
	New: func() any {
		return &statusWriter{}
	},
}

// Timing returns middleware that logs request duration and feeds the perf
// collector and Prometheus metrics. /metrics scrapes are not timed.
// Requests are labelled by their mux pattern so path parameters do not
// create new series; unmatched requests share one label.
func Timing(opts TimingOptions) func(http.Handler) http.Handler {
	threshold := opts.SlowRequest
	if threshold <= 0 {
		threshold = DefaultSlowRequest
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			reqID := requestIDCounter.Add(1)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey, reqID))

			sw := statusWriterPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK
			defer func() {
				elapsed := time.Since(start)
				durationMs := float64(elapsed.Microseconds()) / 1000.0
				route := routeLabel(r.Pattern)

				attrs := []any{
					"request_id", reqID,
					"method", r.Method,
					"path", r.URL.Path,
					"status", sw.status,
					"duration_ms", durationMs,
				}
				if elapsed >= threshold {
					slog.Warn("slow_request", attrs...)
				} else {
					slog.Debug("request", attrs...)
				}

				opts.Metrics.ObserveRequest(r.Method, route, sw.status, elapsed.Seconds())
				if opts.Collector != nil {
					opts.Collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       r.Method + " " + route,
						StatusCode: sw.status,
						DurationMs: durationMs,
						Timestamp:  start,
					})
				}

				sw.ResponseWriter = nil
				statusWriterPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

// routeLabel strips the method from a mux pattern ("GET /x/{id}" -> "/x/{id}").
func routeLabel(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		return pattern[i+1:]
	}
	return pattern
}
