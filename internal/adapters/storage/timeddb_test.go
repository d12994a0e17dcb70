package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	_ "modernc.org/sqlite"

	"dojo/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// TestTimedDB_RecordsEveryCall checks the collector sees exec, query and query_row.
func TestTimedDB_RecordsEveryCall(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), TimingOptions{Collector: collector})
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()

	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q, want hello", val)
	}
	if got := collector.TotalRecorded(); got != 3 {
		t.Errorf("TotalRecorded = %d, want 3", got)
	}
}

// TestTimedDB_ErrorPassthrough verifies SQL errors come back unchanged and are still timed.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), TimingOptions{Collector: collector})
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO missing VALUES (?)", 1); err == nil {
		t.Fatal("expected error from invalid SQL")
	}
	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "nope").Scan(&val); err != sql.ErrNoRows {
		t.Errorf("QueryRowContext err = %v, want sql.ErrNoRows", err)
	}
	if got := collector.TotalRecorded(); got != 2 {
		t.Errorf("TotalRecorded = %d, want 2", got)
	}
}

// TestTimedDB_Metrics verifies the Prometheus histogram is fed.
func TestTimedDB_Metrics(t *testing.T) {
	m := perf.NewMetrics(prometheus.NewRegistry())
	tdb := NewTimedDB(openTimedTestDB(t), TimingOptions{Metrics: m, SlowQuery: time.Hour})

	tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES ('a', 'b')")
	tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES ('c', 'd')")

	if n := testutil.CollectAndCount(m.QueryDuration); n != 1 {
		t.Errorf("query histogram series = %d, want 1", n)
	}
}

// TestTimedDB_Transaction verifies BeginTx returns a usable transaction.
func TestTimedDB_Transaction(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, TimingOptions{})

	tx, err := tdb.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if _, err := tx.Exec("INSERT INTO test (id, val) VALUES (?, ?)", "1", "x"); err != nil {
		t.Fatalf("tx exec: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if tdb.RawDB() != db {
		t.Error("RawDB() should return the wrapped *sql.DB")
	}
}

// TestTimedDB_Concurrent exercises concurrent use under the race detector.
func TestTimedDB_Concurrent(t *testing.T) {
	collector := perf.NewCollector(1000)
	tdb := NewTimedDB(openTimedTestDB(t), TimingOptions{Collector: collector})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				tdb.ExecContext(ctx, "INSERT OR REPLACE INTO test (id, val) VALUES ('k', 'v')")
				var v string
				tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = 'k'").Scan(&v)
			}
		}()
	}
	wg.Wait()

	if got := collector.TotalRecorded(); got != 200 {
		t.Errorf("TotalRecorded = %d, want 200", got)
	}
}
