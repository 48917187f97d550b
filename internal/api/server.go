// Package api exposes the planwise HTTP API: auth, plan generation, the
// project board and file uploads.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/planwise/planwise/internal/auth"
	"github.com/planwise/planwise/internal/database"
	"github.com/planwise/planwise/internal/events"
	"github.com/planwise/planwise/internal/metrics"
	"github.com/planwise/planwise/internal/planner"
	"github.com/planwise/planwise/internal/storage"
	"github.com/planwise/planwise/pkg/config"
)

type contextKey string

const claimsKey contextKey = "claims"

// Server represents the HTTP API server
type Server struct {
	db      *database.Database
	auth    *auth.Manager
	planner *planner.Planner
	store   *storage.FileStore
	bus     events.Bus
	metrics *metrics.Metrics
	config  *config.Config
}

// NewServer creates a new API server
func NewServer(db *database.Database, am *auth.Manager, p *planner.Planner, store *storage.FileStore, bus events.Bus, m *metrics.Metrics, cfg *config.Config) *Server {
	if bus == nil {
		bus = events.NewMemoryBus(0)
	}
	return &Server{
		db:      db,
		auth:    am,
		planner: p,
		store:   store,
		bus:     bus,
		metrics: m,
		config:  cfg,
	}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/api/v1/health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Auth
	mux.HandleFunc("/api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("/api/v1/auth/change-password", s.handleChangePassword)

	// Plan generation
	mux.HandleFunc("/api/v1/plan/generate", s.handlePlanGenerate)
	mux.HandleFunc("/api/v1/plan/curriculum", s.handlePlanCurriculum)
	mux.HandleFunc("/api/v1/plan/apply", s.handlePlanApply)

	// Projects and nested resources
	mux.HandleFunc("/api/v1/projects", s.handleProjects)
	mux.HandleFunc("/api/v1/projects/", s.handleProject)

	// Tasks
	mux.HandleFunc("/api/v1/tasks/", s.handleTask)

	// Uploads
	mux.HandleFunc("/api/v1/uploads", s.handleUpload)

	// Stored files
	if s.store != nil {
		mux.HandleFunc(s.filePrefix(), s.handleStoredFile)
	}

	// Apply middleware
	handler := s.metricsMiddleware(mux)
	handler = s.corsMiddleware(handler)
	handler = s.authMiddleware(handler)

	return otelhttp.NewHandler(handler, "planwise")
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Middleware

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware records request counts and latency per route.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		path := metricPath(r.URL.Path)
		s.metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}

// metricPath collapses resource IDs so the path label stays low-cardinality.
func metricPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if i > 2 && len(p) > 8 {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the Bearer token and attaches the claims.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.requiresAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.respondError(w, http.StatusUnauthorized, "Missing or malformed Authorization header")
			return
		}

		claims, err := s.auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requiresAuth(path string) bool {
	if path == "/api/v1/health" || path == "/metrics" {
		return false
	}
	if path == "/api/v1/auth/register" || path == "/api/v1/auth/login" {
		return false
	}
	if strings.HasPrefix(path, s.filePrefix()) {
		return false
	}
	return true
}

// filePrefix is the public URL prefix for stored files.
func (s *Server) filePrefix() string {
	return strings.TrimSuffix(s.config.Storage.BaseURL, "/") + "/"
}

// claimsFrom returns the authenticated claims, or nil on public routes.
func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}

// requireUser returns the authenticated user ID or writes 401.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := claimsFrom(r)
	if claims == nil || claims.UserID == "" {
		s.respondError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return claims.UserID, true
}

// requireProject loads a project and checks it belongs to the user.
func (s *Server) requireProject(w http.ResponseWriter, projectID, userID string) (ok bool) {
	project, err := s.db.GetProject(projectID)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "Project not found")
		return false
	}
	if project.UserID != userID {
		s.respondError(w, http.StatusNotFound, "Project not found")
		return false
	}
	return true
}

// Helper functions

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// parseJSON parses JSON request body
func (s *Server) parseJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// extractID extracts the first path segment after prefix.
func (s *Server) extractID(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	id = strings.TrimPrefix(id, "/")
	id = strings.TrimSuffix(id, "/")
	parts := strings.Split(id, "/")
	if len(parts) > 0 {
		return parts[0]
	}
	return id
}

// subResource returns the segment after the ID, e.g. "tasks" in
// /api/v1/projects/{id}/tasks.
func (s *Server) subResource(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	parts := strings.Split(rest, "/")
	if len(parts) > 1 {
		return parts[1]
	}
	return ""
}
