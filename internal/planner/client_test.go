package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/planwise/planwise/internal/telemetry"
)

// stubEndpoint runs a fake generateContent server, recording every attempted
// (version, model) pair in order.
type stubEndpoint struct {
	attempts []string
	handler  func(attempt int, w http.ResponseWriter, r *http.Request)
}

func (s *stubEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	// Path shape: /{version}/models/{model}:generateContent
	trimmed := strings.TrimPrefix(r.URL.Path, "/")
	trimmed = strings.TrimSuffix(trimmed, ":generateContent")
	s.attempts = append(s.attempts, strings.Replace(trimmed, "/models/", "/", 1))
	s.handler(len(s.attempts), w, r)
}

func replyText(w http.ResponseWriter, text string) {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func newStubClient(t *testing.T, stub *stubEndpoint) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(stub.serve))
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
}

func TestGenerateFailsFastWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	for _, key := range []string{"", "   "} {
		c := NewClient(ClientConfig{APIKey: key, BaseURL: srv.URL})
		_, err := c.Generate(context.Background(), "prompt")
		assert.ErrorIs(t, err, ErrNoAPIKey)
	}
	assert.False(t, called, "no network call may happen without a credential")
}

func TestGenerateFallbackExhaustion(t *testing.T) {
	stub := &stubEndpoint{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}}
	c := newStubClient(t, stub)

	_, err := c.Generate(context.Background(), "prompt")

	var ce *CandidateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusNotFound, ce.LastStatus)

	// Every (version, model) pair exactly once, versions outermost.
	models := []string{
		"gemini-1.5-flash",
		"gemini-1.5-flash-latest",
		"gemini-1.5-flash-001",
		"gemini-1.5-pro-latest",
		"gemini-1.5-pro-001",
		"gemini-1.5-pro",
		"gemini-2.0-flash-exp",
		"gemini-2.0-flash-thinking-exp-001",
	}
	var want []string
	for _, version := range []string{"v1beta", "v1"} {
		for _, model := range models {
			want = append(want, version+"/"+model)
		}
	}
	assert.Equal(t, want, stub.attempts)
	assert.Equal(t, len(want), ce.Attempts)
}

func TestGenerateFallbackShortCircuit(t *testing.T) {
	stub := &stubEndpoint{}
	stub.handler = func(attempt int, w http.ResponseWriter, r *http.Request) {
		if attempt == 1 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		replyText(w, `{"ok":true}`)
	}
	c := newStubClient(t, stub)

	text, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.Len(t, stub.attempts, 2, "search must stop on first success")
}

func TestGenerateBadRequestContinues(t *testing.T) {
	stub := &stubEndpoint{}
	stub.handler = func(attempt int, w http.ResponseWriter, r *http.Request) {
		if attempt == 1 {
			http.Error(w, `{"error":{"message":"invalid model name pattern"}}`, http.StatusBadRequest)
			return
		}
		replyText(w, "{}")
	}
	c := newStubClient(t, stub)

	_, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Len(t, stub.attempts, 2)
}

func TestGenerateServerErrorPropagates(t *testing.T) {
	stub := &stubEndpoint{}
	stub.handler = func(attempt int, w http.ResponseWriter, r *http.Request) {
		if attempt == 1 {
			http.Error(w, `{"error":{"message":"backend overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		replyText(w, "{}")
	}
	c := newStubClient(t, stub)

	// Only not-found and bad-request advance the search; a 503 surfaces
	// after a single attempt.
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	var ce *CandidateError
	assert.False(t, errors.As(err, &ce), "server errors must not be absorbed by the fallback loop")
	assert.Len(t, stub.attempts, 1)
}

func TestGenerateTracesCandidateLoop(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := telemetry.Tracer
	telemetry.Tracer = provider.Tracer("test")
	t.Cleanup(func() { telemetry.Tracer = prev })

	stub := &stubEndpoint{}
	stub.handler = func(attempt int, w http.ResponseWriter, r *http.Request) {
		if attempt == 1 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		replyText(w, "{}")
	}
	c := newStubClient(t, stub)

	_, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	spans := recorder.Ended()
	var names []string
	for _, s := range spans {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"planner.attempt", "planner.attempt", "planner.generate"}, names)

	// Attempt spans carry the candidate identity.
	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "v1beta", attrs["gemini.api_version"])
	assert.Equal(t, "gemini-1.5-flash", attrs["gemini.model"])
	assert.Equal(t, "404", attrs["http.response.status_code"])
}

func TestGenerateEmptyContentIsFatal(t *testing.T) {
	stub := &stubEndpoint{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[]}`)
	}}
	c := newStubClient(t, stub)

	_, err := c.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Len(t, stub.attempts, 1, "empty content must not be retried")
}

func TestGenerateSendsFixedDecodingConfig(t *testing.T) {
	var got generateRequest
	var gotKey string
	stub := &stubEndpoint{}
	stub.handler = func(_ int, w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		replyText(w, "{}")
	}
	c := newStubClient(t, stub)

	_, err := c.Generate(context.Background(), "the prompt")
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, "the prompt", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 0.3, got.GenerationConfig.Temperature)
	assert.Equal(t, 40, got.GenerationConfig.TopK)
	assert.Equal(t, 0.95, got.GenerationConfig.TopP)
	assert.Equal(t, 8192, got.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
}

func TestGenerateContextCancellation(t *testing.T) {
	stub := &stubEndpoint{handler: func(_ int, w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}}
	c := newStubClient(t, stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "prompt")
	require.Error(t, err)
	var ce *CandidateError
	assert.False(t, errors.As(err, &ce), "cancellation must not be absorbed by the fallback loop")
}

func TestModelCandidatesDeduplicated(t *testing.T) {
	c := NewClient(ClientConfig{APIKey: "k", Model: "gemini-1.5-pro"})
	candidates := c.modelCandidates()

	seen := map[string]bool{}
	for _, m := range candidates {
		assert.False(t, seen[m], "duplicate candidate %s", m)
		seen[m] = true
	}
	assert.Equal(t, "gemini-1.5-pro", candidates[0], "configured model is tried first")
	assert.Contains(t, candidates, "gemini-1.5-pro-latest")
	assert.Contains(t, candidates, "gemini-2.0-flash-exp")
}
