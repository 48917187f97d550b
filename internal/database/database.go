// Package database persists planwise projects, tasks, curricula, daily logs
// and users. It supports SQLite for single-node deployments and PostgreSQL
// for shared ones behind the same Database type.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is how timestamps are stored; TEXT columns keep the two
// backends byte-compatible. Fixed-width fractional seconds so lexical
// ORDER BY matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Database wraps the SQL connection for all planwise tables.
type Database struct {
	db       *sql.DB
	postgres bool
}

// New creates a SQLite-backed database and initializes the schema.
func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d := &Database{db: db}

	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// initSchema creates the tables. Idempotent.
func (d *Database) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		deadline TEXT,
		daily_hours REAL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		image_urls TEXT,
		estimated_hours REAL,
		status TEXT NOT NULL DEFAULT 'pending',
		order_index INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS curriculums (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		topics TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS daily_logs (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		log_date TEXT NOT NULL,
		completed_task_ids TEXT,
		completed_hours REAL,
		notes TEXT,
		created_at TEXT NOT NULL,
		UNIQUE (project_id, log_date),
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_curriculums_project_id ON curriculums(project_id);
	CREATE INDEX IF NOT EXISTS idx_daily_logs_project_id ON daily_logs(project_id);
	`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// marshalStrings encodes a string slice as JSON for a TEXT column. nil and
// empty slices are stored as NULL.
func marshalStrings(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalStrings(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []string
	_ = json.Unmarshal([]byte(s.String), &out)
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	if t.IsZero() {
		return nil
	}
	return &t
}
