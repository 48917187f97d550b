package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// rebind converts ? placeholders to $1, $2, ... for PostgreSQL.
// This is used throughout the database package for parameterized queries.
func rebind(query string) string {
	n := 1
	out := strings.Builder{}
	for _, ch := range query {
		if ch == '?' {
			out.WriteString(fmt.Sprintf("$%d", n))
			n++
		} else {
			out.WriteRune(ch)
		}
	}
	return out.String()
}

// NewPostgres creates a PostgreSQL database connection.
func NewPostgres(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	d := &Database{db: db, postgres: true}

	if err := d.initSchemaPostgres(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

// initSchemaPostgres creates PostgreSQL-specific tables.
func (d *Database) initSchemaPostgres() error {
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
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		deadline TEXT,
		daily_hours REAL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		image_urls TEXT,
		estimated_hours REAL,
		status TEXT NOT NULL DEFAULT 'pending',
		order_index INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS curriculums (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		topics TEXT NOT NULL,
		generated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_logs (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		log_date TEXT NOT NULL,
		completed_task_ids TEXT,
		completed_hours REAL,
		notes TEXT,
		created_at TEXT NOT NULL,
		UNIQUE (project_id, log_date)
	);

	CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_curriculums_project_id ON curriculums(project_id);
	CREATE INDEX IF NOT EXISTS idx_daily_logs_project_id ON daily_logs(project_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// q adapts a ?-style query to the active backend.
func (d *Database) q(query string) string {
	if d.postgres {
		return rebind(query)
	}
	return query
}
