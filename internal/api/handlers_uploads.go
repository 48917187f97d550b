package api

import (
	"encoding/base64"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/planwise/planwise/internal/storage"
)

type uploadRequest struct {
	Filename string `json:"filename"`
	Data     string `json:"data"` // data URL or raw base64
}

type uploadResponse struct {
	URL    string `json:"url"`
	Stored bool   `json:"stored"`
}

// handleUpload stores a file and returns its public URL. Accepts either a
// multipart form with a "file" part or a JSON body carrying a data URL.
// When the store rejects a data-URL upload the original data URL is echoed
// back so the client can keep using it inline.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if s.store == nil {
		s.respondError(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.handleMultipartUpload(w, r, userID)
		return
	}

	var req uploadRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Data == "" {
		s.respondError(w, http.StatusBadRequest, "data is required")
		return
	}

	payload := req.Data
	if idx := strings.Index(payload, ";base64,"); strings.HasPrefix(payload, "data:") && idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid base64 data")
		return
	}

	url, err := s.store.Save(userID, req.Filename, data)
	if err != nil {
		// Keep the client's data URL usable instead of failing the upload.
		log.Printf("[API] Upload store failed for user %s, falling back to data URL: %v", userID, err)
		if s.metrics != nil {
			s.metrics.UploadsTotal.WithLabelValues("fallback").Inc()
		}
		s.respondJSON(w, http.StatusOK, uploadResponse{URL: req.Data, Stored: false})
		return
	}

	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues("stored").Inc()
	}
	s.respondJSON(w, http.StatusCreated, uploadResponse{URL: url, Stored: true})
}

// handleStoredFile serves a stored file by its public URL.
func (s *Server) handleStoredFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, s.filePrefix())
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		s.respondError(w, http.StatusNotFound, "File not found")
		return
	}

	path, err := s.store.Open(parts[0], parts[1])
	if err != nil {
		s.respondError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", storage.ContentType(parts[1]))
	http.ServeFile(w, r, path)
}

func (s *Server) handleMultipartUpload(w http.ResponseWriter, r *http.Request, userID string) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Missing file part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	url, err := s.store.Save(userID, header.Filename, data)
	if err != nil {
		if s.metrics != nil {
			s.metrics.UploadsTotal.WithLabelValues("error").Inc()
		}
		s.respondError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues("stored").Inc()
	}
	s.respondJSON(w, http.StatusCreated, uploadResponse{URL: url, Stored: true})
}
