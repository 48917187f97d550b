// Package storage stores uploaded task images on local disk and serves
// them back by public URL.
package storage

import (
	"crypto/rand"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const maxUploadBytes = 10 << 20 // 10MB

// FileStore writes uploads under root and maps them to URLs under baseURL.
type FileStore struct {
	root    string
	baseURL string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root, baseURL string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FileStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save writes data under the user's directory and returns the public URL.
// Filenames are generated; the original name only contributes its extension.
func (s *FileStore) Save(userID, filename string, data []byte) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user ID cannot be empty")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("file is empty")
	}
	if len(data) > maxUploadBytes {
		return "", fmt.Errorf("file exceeds %d bytes", maxUploadBytes)
	}

	name := generateName(filename)
	dir := filepath.Join(s.root, sanitizeSegment(userID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create user directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.baseURL + "/" + sanitizeSegment(userID) + "/" + name, nil
}

// Open returns the on-disk path for a stored file, rejecting traversal.
func (s *FileStore) Open(userID, name string) (string, error) {
	target := filepath.Join(s.root, sanitizeSegment(userID), sanitizeSegment(name))
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("file not found: %w", err)
	}
	return target, nil
}

// Root returns the store's root directory.
func (s *FileStore) Root() string {
	return s.root
}

// ContentType guesses a MIME type from a stored file's extension.
func ContentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func generateName(original string) string {
	ext := strings.ToLower(path.Ext(original))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		ext = ""
	}
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%d-%x%s", time.Now().UnixNano(), buf, ext)
}

// sanitizeSegment strips anything that could escape the store directory.
func sanitizeSegment(s string) string {
	s = strings.ReplaceAll(s, "\\", "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "..", "")
	return s
}
