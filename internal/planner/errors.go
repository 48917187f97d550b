package planner

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey is returned before any network attempt when no usable
// credential is configured.
var ErrNoAPIKey = errors.New("gemini API key is not configured or empty")

// ErrEmptyContent marks a successful HTTP exchange whose body carried no
// extractable text. This indicates a response-shape problem, not a model
// naming problem, so it is never absorbed by the fallback loop.
var ErrEmptyContent = errors.New("no content in gemini response")

// CandidateError reports that every (API version, model name) candidate
// failed. It carries the last failure observed during the search.
type CandidateError struct {
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *CandidateError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("all %d model variations failed, last error: %v", e.Attempts, e.LastErr)
	}
	return "all model variations failed, check the API key and model name"
}

func (e *CandidateError) Unwrap() error { return e.LastErr }

// ParseError reports that the model's reply was not valid JSON. Raw keeps the
// original text for diagnosis.
type ParseError struct {
	Err error
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse plan response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports one missing or mistyped field in an otherwise
// parseable reply.
type ValidationError struct {
	Field    string // path, e.g. "curriculum.topics"
	Expected string // kind expected at that path
	Got      string // kind observed, or "missing"
}

func (e *ValidationError) Error() string {
	if e.Got == "missing" {
		return fmt.Sprintf("invalid plan response structure: missing %q field", e.Field)
	}
	return fmt.Sprintf("invalid plan response structure: %q must be %s, got %s", e.Field, e.Expected, e.Got)
}
