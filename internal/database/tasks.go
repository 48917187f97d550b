package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/planwise/planwise/internal/models"
)

// CreateTask inserts a single task.
func (d *Database) CreateTask(task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if task.ID == "" {
		task.ID = models.NewID()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	imageURLs, err := marshalStrings(task.ImageURLs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, project_id, title, description, image_urls, estimated_hours, status, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = d.db.Exec(d.q(query),
		task.ID,
		task.ProjectID,
		task.Title,
		task.Description,
		imageURLs,
		task.EstimatedHours,
		string(task.Status),
		task.OrderIndex,
		formatTime(task.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// CreateTasks inserts a batch of tasks in a single transaction. Used when
// applying a generated plan so the board never ends up half-populated.
func (d *Database) CreateTasks(tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := d.q(`
		INSERT INTO tasks (id, project_id, title, description, image_urls, estimated_hours, status, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for _, task := range tasks {
		if task.ID == "" {
			task.ID = models.NewID()
		}
		if task.Status == "" {
			task.Status = models.TaskStatusPending
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = time.Now()
		}
		imageURLs, err := marshalStrings(task.ImageURLs)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query,
			task.ID,
			task.ProjectID,
			task.Title,
			task.Description,
			imageURLs,
			task.EstimatedHours,
			string(task.Status),
			task.OrderIndex,
			formatTime(task.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to create task %q: %w", task.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tasks: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (d *Database) GetTask(id string) (*models.Task, error) {
	query := `
		SELECT id, project_id, title, description, image_urls, estimated_hours, status, order_index, created_at
		FROM tasks
		WHERE id = ?
	`
	row := d.db.QueryRow(d.q(query), id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListTasksByProject returns a project's tasks in board order.
func (d *Database) ListTasksByProject(projectID string) ([]*models.Task, error) {
	query := `
		SELECT id, project_id, title, description, image_urls, estimated_hours, status, order_index, created_at
		FROM tasks
		WHERE project_id = ?
		ORDER BY order_index ASC, created_at ASC
	`
	return d.queryTasks(query, projectID)
}

// ListCompletedTasks returns a project's completed tasks in board order.
// Their titles feed back into the next daily plan prompt.
func (d *Database) ListCompletedTasks(projectID string) ([]*models.Task, error) {
	query := `
		SELECT id, project_id, title, description, image_urls, estimated_hours, status, order_index, created_at
		FROM tasks
		WHERE project_id = ? AND status = 'completed'
		ORDER BY order_index ASC, created_at ASC
	`
	return d.queryTasks(query, projectID)
}

func (d *Database) queryTasks(query string, args ...interface{}) ([]*models.Task, error) {
	rows, err := d.db.Query(d.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTask updates a task's mutable fields.
func (d *Database) UpdateTask(task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	imageURLs, err := marshalStrings(task.ImageURLs)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = ?, description = ?, image_urls = ?, estimated_hours = ?, status = ?, order_index = ?
		WHERE id = ?
	`
	result, err := d.db.Exec(d.q(query),
		task.Title,
		task.Description,
		imageURLs,
		task.EstimatedHours,
		string(task.Status),
		task.OrderIndex,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found: %s", task.ID)
	}
	return nil
}

// DeleteTask removes a task.
func (d *Database) DeleteTask(id string) error {
	result, err := d.db.Exec(d.q(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	return nil
}

// CountTasksByStatus returns the number of tasks per status across all
// projects. Statuses with no tasks are absent from the map.
func (d *Database) CountTasksByStatus() (map[models.TaskStatus]int, error) {
	rows, err := d.db.Query(`SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan task count: %w", err)
		}
		counts[models.TaskStatus(status)] = n
	}
	return counts, rows.Err()
}

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var description sql.NullString
	var imageURLs sql.NullString
	var estimatedHours sql.NullFloat64
	var status string
	var createdAt string
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&description,
		&imageURLs,
		&estimatedHours,
		&status,
		&t.OrderIndex,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.ImageURLs = unmarshalStrings(imageURLs)
	t.EstimatedHours = estimatedHours.Float64
	t.Status = models.TaskStatus(status)
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}
