package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/planwise/planwise/internal/models"
)

// CreateProject inserts a new project.
func (d *Database) CreateProject(project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project cannot be nil")
	}
	if project.ID == "" {
		project.ID = models.NewID()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}

	var deadline sql.NullString
	if project.Deadline != nil {
		deadline = sql.NullString{String: formatTime(*project.Deadline), Valid: true}
	}

	query := `
		INSERT INTO projects (id, user_id, title, description, deadline, daily_hours, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.Exec(d.q(query),
		project.ID,
		project.UserID,
		project.Title,
		project.Description,
		deadline,
		project.DailyHours,
		project.IsActive,
		formatTime(project.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func (d *Database) GetProject(id string) (*models.Project, error) {
	query := `
		SELECT id, user_id, title, description, deadline, daily_hours, is_active, created_at
		FROM projects
		WHERE id = ?
	`
	row := d.db.QueryRow(d.q(query), id)
	project, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// ListProjectsByUser returns the user's projects, newest first.
func (d *Database) ListProjectsByUser(userID string) ([]*models.Project, error) {
	query := `
		SELECT id, user_id, title, description, deadline, daily_hours, is_active, created_at
		FROM projects
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	rows, err := d.db.Query(d.q(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// UpdateProject updates a project's mutable fields.
func (d *Database) UpdateProject(project *models.Project) error {
	if project == nil {
		return fmt.Errorf("project cannot be nil")
	}

	var deadline sql.NullString
	if project.Deadline != nil {
		deadline = sql.NullString{String: formatTime(*project.Deadline), Valid: true}
	}

	query := `
		UPDATE projects
		SET title = ?, description = ?, deadline = ?, daily_hours = ?, is_active = ?
		WHERE id = ?
	`
	result, err := d.db.Exec(d.q(query),
		project.Title,
		project.Description,
		deadline,
		project.DailyHours,
		project.IsActive,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project not found: %s", project.ID)
	}
	return nil
}

// DeleteProject removes a project and, via foreign keys, its tasks,
// curricula and daily logs.
func (d *Database) DeleteProject(id string) error {
	result, err := d.db.Exec(d.q(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	p := &models.Project{}
	var description sql.NullString
	var deadline sql.NullString
	var dailyHours sql.NullFloat64
	var createdAt string
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&description,
		&deadline,
		&dailyHours,
		&p.IsActive,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Deadline = parseNullableTime(deadline)
	p.DailyHours = dailyHours.Float64
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}
