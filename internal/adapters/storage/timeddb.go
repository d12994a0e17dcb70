package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"dojo/internal/adapters/http/perf"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery is used when TimingOptions.SlowQuery is zero.
const DefaultSlowQuery = 50 * time.Millisecond

// TimingOptions configures TimedDB instrumentation. Every field is optional.
type TimingOptions struct {
	Collector *perf.Collector
	Metrics   *perf.Metrics
	SlowQuery time.Duration
}

// TimedDB wraps a *sql.DB, logging slow calls and feeding the perf collector
// and the Prometheus query histogram.
type TimedDB struct {
	db   *sql.DB
	opts TimingOptions
}

// NewTimedDB wraps db with timing instrumentation.
// PRE: db is a valid database connection
// POST: Returns a TimedDB usable anywhere a SQLDB is accepted
func NewTimedDB(db *sql.DB, opts TimingOptions) *TimedDB {
	if opts.SlowQuery <= 0 {
		opts.SlowQuery = DefaultSlowQuery
	}
	return &TimedDB{db: db, opts: opts}
}

// RawDB returns the underlying *sql.DB for migrations and pool settings.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

func (t *TimedDB) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	ms := float64(elapsed.Microseconds()) / 1000.0

	switch {
	case err != nil && err != sql.ErrNoRows:
		slog.Debug("query_error", "op", op, "duration_ms", ms, "error", err)
	case elapsed >= t.opts.SlowQuery:
		slog.Warn("slow_query", "op", op, "duration_ms", ms)
	}

	t.opts.Metrics.ObserveQuery(op, elapsed.Seconds())
	if t.opts.Collector != nil {
		t.opts.Collector.Record(perf.Entry{
			Kind:       perf.KindQuery,
			Path:       op,
			DurationMs: ms,
			Timestamp:  start,
		})
	}
}

// ExecContext runs a statement and records its latency, including failures.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.db.ExecContext(ctx, query, args...)
	t.observe("exec", start, err)
	return res, err
}

// QueryContext runs a query and records its latency.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe("query", start, err)
	return rows, err
}

// QueryRowContext runs a single-row query and records its latency.
// Scan errors surface to the caller; they are not observed here.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe("query_row", start, row.Err())
	return row
}

// BeginTx starts a transaction and records how long acquiring it took.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe("begin_tx", start, err)
	return tx, err
}

// PingContext verifies the database connection; used by /healthz.
func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
