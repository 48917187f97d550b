package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planwise/planwise/internal/models"
)

// CreateCurriculum stores a generated curriculum snapshot.
func (d *Database) CreateCurriculum(curriculum *models.Curriculum) error {
	if curriculum == nil {
		return fmt.Errorf("curriculum cannot be nil")
	}
	if curriculum.ID == "" {
		curriculum.ID = models.NewID()
	}
	if curriculum.GeneratedAt.IsZero() {
		curriculum.GeneratedAt = time.Now()
	}

	topics, err := json.Marshal(curriculum.Topics)
	if err != nil {
		return fmt.Errorf("failed to marshal curriculum topics: %w", err)
	}

	query := `
		INSERT INTO curriculums (id, project_id, topics, generated_at)
		VALUES (?, ?, ?, ?)
	`
	_, err = d.db.Exec(d.q(query),
		curriculum.ID,
		curriculum.ProjectID,
		string(topics),
		formatTime(curriculum.GeneratedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create curriculum: %w", err)
	}
	return nil
}

// LatestCurriculum returns the most recently generated curriculum for a
// project, or ErrNotFound when none has been generated yet.
func (d *Database) LatestCurriculum(projectID string) (*models.Curriculum, error) {
	query := `
		SELECT id, project_id, topics, generated_at
		FROM curriculums
		WHERE project_id = ?
		ORDER BY generated_at DESC
		LIMIT 1
	`
	row := d.db.QueryRow(d.q(query), projectID)

	c := &models.Curriculum{}
	var topics string
	var generatedAt string
	err := row.Scan(&c.ID, &c.ProjectID, &topics, &generatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest curriculum: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &c.Topics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal curriculum topics: %w", err)
	}
	c.GeneratedAt = parseTime(generatedAt)
	return c, nil
}
