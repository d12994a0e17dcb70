package perf

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "dojo"

// Metrics holds the Prometheus series exported on /metrics.
// All methods are safe on a nil receiver so callers need not guard.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	QueryDuration   *prometheus.HistogramVec
	EngineRuns      *prometheus.CounterVec
	GatewayCalls    *prometheus.CounterVec
	OutboxResults   *prometheus.CounterVec
}

// NewMetrics registers the service metrics on reg.
// PRE: reg is non-nil and has no dojo_* series registered
// POST: Returns metrics bound to reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, path and status code",
		}, []string{"method", "path", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database call latency by operation",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"op"}),
		EngineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Statistics engine invocations by operation and outcome",
		}, []string{"operation", "outcome"}),
		GatewayCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Payment gateway calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		OutboxResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "outbox",
			Name:      "deliveries_total",
			Help:      "Outbox delivery attempts by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// ObserveQuery records one database call.
func (m *Metrics) ObserveQuery(op string, seconds float64) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(op).Observe(seconds)
}

// EngineRun counts one engine call; err selects the outcome label.
func (m *Metrics) EngineRun(operation string, err error) {
	if m == nil {
		return
	}
	m.EngineRuns.WithLabelValues(operation, outcome(err == nil)).Inc()
}

// GatewayCall counts one charge or refund.
func (m *Metrics) GatewayCall(operation string, ok bool) {
	if m == nil {
		return
	}
	m.GatewayCalls.WithLabelValues(operation, outcome(ok)).Inc()
}

// OutboxResult counts one outbox delivery attempt.
func (m *Metrics) OutboxResult(ok bool) {
	if m == nil {
		return
	}
	m.OutboxResults.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
