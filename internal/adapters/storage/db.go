package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	stmts   string
}

// migrations are applied in order; never edit a released entry, append a new one.
var migrations = []migration{
	{1, "baseline", `
	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		payment_token TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		class_date TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		UNIQUE (student_id, class_id, class_date)
	);
	CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance (class_date);

	CREATE TABLE IF NOT EXISTS payment (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		refunded_amount INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		payment_date TEXT NOT NULL,
		external_reference TEXT NOT NULL DEFAULT '',
		extension TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS idx_payment_subject ON payment (subject_id, payment_date);
	CREATE INDEX IF NOT EXISTS idx_payment_reference ON payment (external_reference);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	`},
	{2, "inventory", `
	CREATE TABLE IF NOT EXISTS inventory_item (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		current_stock INTEGER NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
		min_stock_level INTEGER NOT NULL DEFAULT 0,
		max_stock_level INTEGER NOT NULL DEFAULT 0,
		unit_cost INTEGER NOT NULL DEFAULT 0,
		selling_price INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stock_movement (
		id TEXT PRIMARY KEY,
		inventory_id TEXT NOT NULL,
		movement_type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_cost INTEGER NOT NULL DEFAULT 0,
		total_cost INTEGER NOT NULL DEFAULT 0,
		reference_kind TEXT NOT NULL DEFAULT 'manual',
		reference_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (inventory_id) REFERENCES inventory_item(id)
	);
	CREATE INDEX IF NOT EXISTS idx_stock_movement_item ON stock_movement (inventory_id, created_at);
	`},
	{3, "membership_and_preferences", `
	CREATE TABLE IF NOT EXISTS membership_plan (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		base_price_cents INTEGER NOT NULL,
		setup_fee_cents INTEGER NOT NULL DEFAULT 0,
		billing_interval TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS membership_assignment (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		status TEXT NOT NULL,
		price_cents INTEGER NOT NULL,
		setup_fee_cents INTEGER NOT NULL DEFAULT 0,
		payment_path TEXT NOT NULL,
		subscription_cycle TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (member_id) REFERENCES member(id),
		FOREIGN KEY (plan_id) REFERENCES membership_plan(id)
	);

	CREATE TABLE IF NOT EXISTS preference (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`},
}

// Open opens the SQLite database at path and migrates it.
// ":memory:" databases are limited to one connection so every caller shares
// the same in-memory schema.
// PRE: path is a file path or ":memory:"
// POST: Returns a migrated connection pool, or an error with the pool closed
func Open(path string) (*sql.DB, error) {
	dsn := path
	if isFilePath(path) {
		// Per-connection pragmas must ride on the DSN so pooled connections get them too.
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if isFilePath(path) {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	} else {
		db.SetMaxOpenConns(1)
	}
	if err := MigrateDB(db, path); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// LatestSchemaVersion is the version a fully migrated database reports.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the highest applied migration, 0 for a fresh database.
// PRE: db is a valid database connection
// POST: Returns the current version or an error
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// A file-backed database is copied to "<dbPath>.bak-v<current>" before any
// pending migration runs.
// PRE: db is a valid database connection; dbPath is the file path or ":memory:"
// POST: WAL and foreign keys enabled; all migrations applied, each in its own transaction
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current > LatestSchemaVersion() {
		return fmt.Errorf("database schema v%d is newer than this binary (v%d)", current, LatestSchemaVersion())
	}
	if current == LatestSchemaVersion() {
		return nil
	}

	if current > 0 && isFilePath(dbPath) {
		backup := fmt.Sprintf("%s.bak-v%d", dbPath, current)
		if _, err := db.Exec(`VACUUM INTO ?`, backup); err != nil {
			return fmt.Errorf("failed to back up database before migrating: %w", err)
		}
		slog.Info("schema_backup", "path", backup)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return err
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.version, err)
	}
	if _, err := tx.Exec(m.stmts); err != nil {
		return errors.Join(fmt.Errorf("migration %d (%s): %w", m.version, m.name, err), tx.Rollback())
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return errors.Join(fmt.Errorf("migration %d: record version: %w", m.version, err), tx.Rollback())
	}
	return tx.Commit()
}

func isFilePath(p string) bool {
	return p != "" && p != ":memory:" && !strings.HasPrefix(p, "file::memory:")
}
