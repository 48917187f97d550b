package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/planwise/planwise/internal/events"
	"github.com/planwise/planwise/internal/models"
	"github.com/planwise/planwise/internal/planner"
)

type planRequest struct {
	planner.Request
	ProjectID string `json:"project_id,omitempty"`
}

type applyRequest struct {
	ProjectID string            `json:"project_id"`
	Plan      *planner.Response `json:"plan"`
}

// handlePlanGenerate produces today's plan. With a project_id the project's
// completed tasks are excluded from the plan and the returned curriculum is
// saved as the project's latest snapshot.
func (s *Server) handlePlanGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req planRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Goal) == "" {
		s.respondError(w, http.StatusBadRequest, "Goal is required")
		return
	}

	var completed []planner.CompletedTask
	if req.ProjectID != "" {
		if !s.requireProject(w, req.ProjectID, userID) {
			return
		}
		tasks, err := s.db.ListCompletedTasks(req.ProjectID)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to load completed tasks")
			return
		}
		for _, t := range tasks {
			completed = append(completed, planner.CompletedTask{
				Title:       t.Title,
				Description: t.Description,
			})
		}
	}

	start := time.Now()
	resp, err := s.planner.GeneratePlan(r.Context(), req.Request, completed)
	if s.metrics != nil {
		s.metrics.RecordGeneration("daily", err == nil, time.Since(start).Seconds())
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.ProjectID != "" {
		s.saveCurriculum(req.ProjectID, resp)
		s.publish(r, events.Event{
			Type:      events.TypePlanGenerated,
			UserID:    userID,
			ProjectID: req.ProjectID,
			Data:      map[string]interface{}{"tasks": len(resp.Tasks), "mode": "daily"},
		})
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// handlePlanCurriculum produces a full-timeframe curriculum.
func (s *Server) handlePlanCurriculum(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req planRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Goal) == "" {
		s.respondError(w, http.StatusBadRequest, "Goal is required")
		return
	}
	if req.ProjectID != "" && !s.requireProject(w, req.ProjectID, userID) {
		return
	}

	start := time.Now()
	resp, err := s.planner.GenerateCurriculum(r.Context(), req.Request)
	if s.metrics != nil {
		s.metrics.RecordGeneration("full_curriculum", err == nil, time.Since(start).Seconds())
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.ProjectID != "" {
		s.saveCurriculum(req.ProjectID, resp)
		s.publish(r, events.Event{
			Type:      events.TypePlanGenerated,
			UserID:    userID,
			ProjectID: req.ProjectID,
			Data:      map[string]interface{}{"tasks": len(resp.Tasks), "mode": "full_curriculum"},
		})
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// handlePlanApply writes a generated plan onto a project's board. Task order
// follows plan order; tags are folded into the task description.
func (s *Server) handlePlanApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req applyRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProjectID == "" || req.Plan == nil {
		s.respondError(w, http.StatusBadRequest, "project_id and plan are required")
		return
	}
	if !s.requireProject(w, req.ProjectID, userID) {
		return
	}

	s.saveCurriculum(req.ProjectID, req.Plan)

	tasks := make([]*models.Task, 0, len(req.Plan.Tasks))
	for i, pt := range req.Plan.Tasks {
		description := pt.Description
		if len(pt.Tags) > 0 {
			description += "\n\nTags: " + strings.Join(pt.Tags, ", ")
		}
		tasks = append(tasks, &models.Task{
			ProjectID:      req.ProjectID,
			Title:          pt.Title,
			Description:    description,
			EstimatedHours: pt.EstimatedHours,
			Status:         models.TaskStatusPending,
			OrderIndex:     i,
		})
	}

	if err := s.db.CreateTasks(tasks); err != nil {
		if s.metrics != nil {
			s.metrics.PlansApplied.WithLabelValues("error").Inc()
		}
		s.respondError(w, http.StatusInternalServerError, "Failed to create tasks")
		return
	}
	if s.metrics != nil {
		s.metrics.PlansApplied.WithLabelValues("success").Inc()
		s.metrics.TasksCreated.WithLabelValues("plan").Add(float64(len(tasks)))
	}
	s.refreshTaskMetrics()

	s.publish(r, events.Event{
		Type:      events.TypePlanApplied,
		UserID:    userID,
		ProjectID: req.ProjectID,
		Data:      map[string]interface{}{"tasks": len(tasks)},
	})

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"tasks_created": len(tasks),
		"tasks":         tasks,
	})
}

// saveCurriculum stores the plan's curriculum as the project's latest
// snapshot. Failures are logged, not returned; the caller already has the
// plan in hand.
func (s *Server) saveCurriculum(projectID string, plan *planner.Response) {
	topics, err := curriculumMap(plan.Curriculum)
	if err != nil {
		log.Printf("[API] Failed to encode curriculum for project %s: %v", projectID, err)
		return
	}
	if err := s.db.CreateCurriculum(&models.Curriculum{
		ProjectID: projectID,
		Topics:    topics,
	}); err != nil {
		log.Printf("[API] Failed to save curriculum for project %s: %v", projectID, err)
	}
}

func curriculumMap(c planner.Curriculum) (map[string]interface{}, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// publish sends an event on the bus. Broker trouble never fails a request.
func (s *Server) publish(r *http.Request, event events.Event) {
	if err := s.bus.Publish(r.Context(), event); err != nil {
		log.Printf("[API] Failed to publish %s event: %v", event.Type, err)
	}
}
