package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task on the board.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// User is an account that owns projects.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a long-term goal with an optional deadline and daily time budget.
type Project struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	DailyHours  float64    `json:"daily_hours,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Task is one atomic unit of work on a project's board.
// OrderIndex defines display and execution priority within a project.
type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	ImageURLs      []string   `json:"image_urls,omitempty"`
	EstimatedHours float64    `json:"estimated_hours,omitempty"`
	Status         TaskStatus `json:"status"`
	OrderIndex     int        `json:"order_index"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Curriculum is one generated curriculum snapshot for a project. Topics holds
// the generator's curriculum object verbatim; the newest GeneratedAt wins.
type Curriculum struct {
	ID          string                 `json:"id"`
	ProjectID   string                 `json:"project_id"`
	Topics      map[string]interface{} `json:"topics"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// DailyLog records what was completed on a project for one calendar day.
type DailyLog struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	LogDate          string    `json:"log_date"` // YYYY-MM-DD
	CompletedTaskIDs []string  `json:"completed_task_ids,omitempty"`
	CompletedHours   float64   `json:"completed_hours,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewID returns a fresh identifier for any record type.
func NewID() string {
	return uuid.NewString()
}
