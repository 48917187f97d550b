package api

import (
	"net/http"
	"strings"

	"github.com/planwise/planwise/internal/events"
	"github.com/planwise/planwise/internal/models"
)

type taskRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	ImageURLs      []string `json:"image_urls,omitempty"`
	EstimatedHours float64  `json:"estimated_hours,omitempty"`
	Status         string   `json:"status,omitempty"`
	OrderIndex     *int     `json:"order_index,omitempty"`
}

// handleProjectTasks handles GET/POST /api/v1/projects/{id}/tasks.
func (s *Server) handleProjectTasks(w http.ResponseWriter, r *http.Request, projectID, userID string) {
	if !s.requireProject(w, projectID, userID) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		tasks, err := s.db.ListTasksByProject(projectID)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to list tasks")
			return
		}
		if tasks == nil {
			tasks = []*models.Task{}
		}
		s.respondJSON(w, http.StatusOK, tasks)

	case http.MethodPost:
		var req taskRequest
		if err := s.parseJSON(r, &req); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			s.respondError(w, http.StatusBadRequest, "Title is required")
			return
		}
		status, ok := taskStatus(req.Status)
		if !ok {
			s.respondError(w, http.StatusBadRequest, "Invalid status")
			return
		}

		task := &models.Task{
			ProjectID:      projectID,
			Title:          req.Title,
			Description:    req.Description,
			ImageURLs:      req.ImageURLs,
			EstimatedHours: req.EstimatedHours,
			Status:         status,
		}
		if req.OrderIndex != nil {
			task.OrderIndex = *req.OrderIndex
		}
		if err := s.db.CreateTask(task); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to create task")
			return
		}
		if s.metrics != nil {
			s.metrics.TasksCreated.WithLabelValues("manual").Inc()
		}
		s.refreshTaskMetrics()
		s.respondJSON(w, http.StatusCreated, task)

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleTask handles PUT/DELETE /api/v1/tasks/{id}.
func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	taskID := s.extractID(r.URL.Path, "/api/v1/tasks")
	if taskID == "" {
		s.respondError(w, http.StatusBadRequest, "Task ID is required")
		return
	}

	task, err := s.db.GetTask(taskID)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "Task not found")
		return
	}
	if !s.requireProject(w, task.ProjectID, userID) {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req taskRequest
		if err := s.parseJSON(r, &req); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Title != "" {
			task.Title = req.Title
		}
		task.Description = req.Description
		task.ImageURLs = req.ImageURLs
		task.EstimatedHours = req.EstimatedHours
		if req.OrderIndex != nil {
			task.OrderIndex = *req.OrderIndex
		}
		if req.Status != "" {
			status, ok := taskStatus(req.Status)
			if !ok {
				s.respondError(w, http.StatusBadRequest, "Invalid status")
				return
			}
			task.Status = status
		}

		if err := s.db.UpdateTask(task); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to update task")
			return
		}

		s.refreshTaskMetrics()
		s.publish(r, events.Event{
			Type:      events.TypeTaskUpdated,
			UserID:    userID,
			ProjectID: task.ProjectID,
			Data:      map[string]interface{}{"task_id": task.ID, "status": string(task.Status)},
		})
		s.respondJSON(w, http.StatusOK, task)

	case http.MethodDelete:
		if err := s.db.DeleteTask(taskID); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to delete task")
			return
		}
		s.refreshTaskMetrics()
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// refreshTaskMetrics recomputes the per-status task gauge after a write.
func (s *Server) refreshTaskMetrics() {
	if s.metrics == nil {
		return
	}
	counts, err := s.db.CountTasksByStatus()
	if err != nil {
		return
	}
	for _, status := range []models.TaskStatus{models.TaskStatusPending, models.TaskStatusCompleted, models.TaskStatusSkipped} {
		s.metrics.TaskStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

func taskStatus(value string) (models.TaskStatus, bool) {
	switch models.TaskStatus(value) {
	case "":
		return models.TaskStatusPending, true
	case models.TaskStatusPending, models.TaskStatusCompleted, models.TaskStatusSkipped:
		return models.TaskStatus(value), true
	}
	return "", false
}
