package perf

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRequest("GET", "/api/stats/attendance", 200, 0.01)
	m.ObserveRequest("GET", "/api/stats/attendance", 200, 0.02)
	m.EngineRun("aggregate_attendance", nil)
	m.EngineRun("aggregate_attendance", errors.New("bad window"))
	m.GatewayCall("charge", true)
	m.OutboxResult(false)

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/stats/attendance", "200")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.EngineRuns.WithLabelValues("aggregate_attendance", "error")); got != 1 {
		t.Errorf("engine errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.GatewayCalls.WithLabelValues("charge", "ok")); got != 1 {
		t.Errorf("gateway ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OutboxResults.WithLabelValues("error")); got != 1 {
		t.Errorf("outbox errors = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", 200, 0.1)
	m.ObserveQuery("QueryContext", 0.1)
	m.EngineRun("x", nil)
	m.GatewayCall("charge", false)
	m.OutboxResult(true)
}
