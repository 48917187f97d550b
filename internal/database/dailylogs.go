package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/planwise/planwise/internal/models"
)

// UpsertDailyLog inserts or replaces the log for (project_id, log_date).
// Saving twice on the same day overwrites the earlier entry.
func (d *Database) UpsertDailyLog(log *models.DailyLog) error {
	if log == nil {
		return fmt.Errorf("daily log cannot be nil")
	}
	if log.ID == "" {
		log.ID = models.NewID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	completedTaskIDs, err := marshalStrings(log.CompletedTaskIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO daily_logs (id, project_id, log_date, completed_task_ids, completed_hours, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, log_date) DO UPDATE SET
			completed_task_ids = excluded.completed_task_ids,
			completed_hours = excluded.completed_hours,
			notes = excluded.notes
	`
	_, err = d.db.Exec(d.q(query),
		log.ID,
		log.ProjectID,
		log.LogDate,
		completedTaskIDs,
		log.CompletedHours,
		log.Notes,
		formatTime(log.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily log: %w", err)
	}
	return nil
}

// ListDailyLogsByProject returns a project's daily logs, newest date first.
func (d *Database) ListDailyLogsByProject(projectID string) ([]*models.DailyLog, error) {
	query := `
		SELECT id, project_id, log_date, completed_task_ids, completed_hours, notes, created_at
		FROM daily_logs
		WHERE project_id = ?
		ORDER BY log_date DESC
	`
	rows, err := d.db.Query(d.q(query), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DailyLog
	for rows.Next() {
		log, err := scanDailyLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func scanDailyLog(row rowScanner) (*models.DailyLog, error) {
	l := &models.DailyLog{}
	var completedTaskIDs sql.NullString
	var completedHours sql.NullFloat64
	var notes sql.NullString
	var createdAt string
	err := row.Scan(
		&l.ID,
		&l.ProjectID,
		&l.LogDate,
		&completedTaskIDs,
		&completedHours,
		&notes,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	l.CompletedTaskIDs = unmarshalStrings(completedTaskIDs)
	l.CompletedHours = completedHours.Float64
	l.Notes = notes.String
	l.CreatedAt = parseTime(createdAt)
	return l, nil
}
