package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/planwise/planwise/internal/database"
	"github.com/planwise/planwise/internal/models"
)

type projectRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Deadline    string  `json:"deadline,omitempty"` // YYYY-MM-DD or RFC 3339
	DailyHours  float64 `json:"daily_hours,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// handleProjects handles /api/v1/projects (list, create).
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		projects, err := s.db.ListProjectsByUser(userID)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to list projects")
			return
		}
		if projects == nil {
			projects = []*models.Project{}
		}
		s.respondJSON(w, http.StatusOK, projects)

	case http.MethodPost:
		var req projectRequest
		if err := s.parseJSON(r, &req); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			s.respondError(w, http.StatusBadRequest, "Title is required")
			return
		}

		project := &models.Project{
			UserID:      userID,
			Title:       req.Title,
			Description: req.Description,
			DailyHours:  req.DailyHours,
			IsActive:    true,
		}
		if req.IsActive != nil {
			project.IsActive = *req.IsActive
		}
		if req.Deadline != "" {
			deadline, err := parseDeadline(req.Deadline)
			if err != nil {
				s.respondError(w, http.StatusBadRequest, "Invalid deadline format")
				return
			}
			project.Deadline = &deadline
		}

		if err := s.db.CreateProject(project); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to create project")
			return
		}
		if s.metrics != nil {
			s.metrics.ProjectsTotal.Inc()
		}
		s.respondJSON(w, http.StatusCreated, project)

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleProject handles /api/v1/projects/{id} and its nested resources
// (tasks, logs, curriculum).
func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	const prefix = "/api/v1/projects"
	projectID := s.extractID(r.URL.Path, prefix)
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	switch s.subResource(r.URL.Path, prefix) {
	case "tasks":
		s.handleProjectTasks(w, r, projectID, userID)
	case "logs":
		s.handleProjectLogs(w, r, projectID, userID)
	case "curriculum":
		s.handleProjectCurriculum(w, r, projectID, userID)
	case "":
		s.handleProjectByID(w, r, projectID, userID)
	default:
		s.respondError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request, projectID, userID string) {
	project, err := s.db.GetProject(projectID)
	if err != nil || project.UserID != userID {
		s.respondError(w, http.StatusNotFound, "Project not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.respondJSON(w, http.StatusOK, project)

	case http.MethodPut:
		var req projectRequest
		if err := s.parseJSON(r, &req); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Title != "" {
			project.Title = req.Title
		}
		project.Description = req.Description
		project.DailyHours = req.DailyHours
		if req.IsActive != nil {
			project.IsActive = *req.IsActive
		}
		if req.Deadline == "" {
			project.Deadline = nil
		} else {
			deadline, err := parseDeadline(req.Deadline)
			if err != nil {
				s.respondError(w, http.StatusBadRequest, "Invalid deadline format")
				return
			}
			project.Deadline = &deadline
		}

		if err := s.db.UpdateProject(project); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to update project")
			return
		}
		s.respondJSON(w, http.StatusOK, project)

	case http.MethodDelete:
		if err := s.db.DeleteProject(projectID); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to delete project")
			return
		}
		if s.metrics != nil {
			s.metrics.ProjectsTotal.Dec()
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleProjectCurriculum returns the project's latest curriculum snapshot.
func (s *Server) handleProjectCurriculum(w http.ResponseWriter, r *http.Request, projectID, userID string) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.requireProject(w, projectID, userID) {
		return
	}

	curriculum, err := s.db.LatestCurriculum(projectID)
	if err == database.ErrNotFound {
		s.respondError(w, http.StatusNotFound, "No curriculum generated yet")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to load curriculum")
		return
	}
	s.respondJSON(w, http.StatusOK, curriculum)
}

type dailyLogRequest struct {
	LogDate          string   `json:"log_date"`
	CompletedTaskIDs []string `json:"completed_task_ids,omitempty"`
	CompletedHours   float64  `json:"completed_hours,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// handleProjectLogs handles GET/PUT /api/v1/projects/{id}/logs. PUT upserts
// the log for its date.
func (s *Server) handleProjectLogs(w http.ResponseWriter, r *http.Request, projectID, userID string) {
	if !s.requireProject(w, projectID, userID) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		logs, err := s.db.ListDailyLogsByProject(projectID)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to list daily logs")
			return
		}
		if logs == nil {
			logs = []*models.DailyLog{}
		}
		s.respondJSON(w, http.StatusOK, logs)

	case http.MethodPut:
		var req dailyLogRequest
		if err := s.parseJSON(r, &req); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		logDate := req.LogDate
		if logDate == "" {
			logDate = time.Now().Format("2006-01-02")
		}
		if _, err := time.Parse("2006-01-02", logDate); err != nil {
			s.respondError(w, http.StatusBadRequest, "log_date must be YYYY-MM-DD")
			return
		}

		entry := &models.DailyLog{
			ProjectID:        projectID,
			LogDate:          logDate,
			CompletedTaskIDs: req.CompletedTaskIDs,
			CompletedHours:   req.CompletedHours,
			Notes:            req.Notes,
		}
		if err := s.db.UpsertDailyLog(entry); err != nil {
			s.respondError(w, http.StatusInternalServerError, "Failed to save daily log")
			return
		}
		s.respondJSON(w, http.StatusOK, entry)

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func parseDeadline(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
