// Package events publishes application events so other tools can react to
// plan generation and board changes. The bus is optional; when disabled a
// no-op in-memory bus is used.
package events

import (
	"context"
	"time"
)

// Event types published by the server.
const (
	TypePlanGenerated = "plan.generated"
	TypePlanApplied   = "plan.applied"
	TypeTaskUpdated   = "task.updated"
)

// Event is one application event.
type Event struct {
	Type      string                 `json:"type"`
	UserID    string                 `json:"user_id,omitempty"`
	ProjectID string                 `json:"project_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Bus publishes events. Publish must not block request handling on broker
// trouble; implementations log and drop instead.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
