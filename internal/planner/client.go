package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/planwise/planwise/internal/metrics"
	"github.com/planwise/planwise/internal/telemetry"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// defaultModel is used when no model override is configured.
const defaultModel = "gemini-1.5-flash"

// apiVersions are tried newest first; every model candidate is attempted
// under one version before moving to the next.
var apiVersions = []string{"v1beta", "v1"}

// fallbackModels are known-good model names appended after the configured
// model's own variants.
var fallbackModels = []string{
	"gemini-1.5-flash-latest",
	"gemini-1.5-flash-001",
	"gemini-1.5-flash",
	"gemini-1.5-pro-latest",
	"gemini-1.5-pro-001",
	"gemini-1.5-pro",
	"gemini-2.0-flash-exp",
	"gemini-2.0-flash-thinking-exp-001",
}

// Client delivers a composed prompt to the Gemini generateContent endpoint
// and returns the raw reply text. Transient endpoint and model-naming
// failures are masked behind a bounded candidate search; everything else
// propagates untouched.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
}

// ClientConfig configures a generation client.
type ClientConfig struct {
	APIKey  string
	Model   string        // optional model override
	BaseURL string        // optional, for tests and proxies
	Timeout time.Duration // per-attempt timeout, default 30s
	Metrics *metrics.Metrics
}

// NewClient creates a generation client. The credential is validated at call
// time, not here, so a server can start without one and fail only when a
// generation is requested.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		metrics: cfg.Metrics,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopK             int     `json:"topK"`
	TopP             float64 `json:"topP"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// modelCandidates returns the deduplicated, ordered model names to try:
// the configured model, its common suffix variants, then the fixed
// fallback list.
func (c *Client) modelCandidates() []string {
	seeds := []string{c.model, c.model + "-latest", c.model + "-001"}
	seeds = append(seeds, fallbackModels...)

	seen := make(map[string]bool, len(seeds))
	candidates := make([]string, 0, len(seeds))
	for _, m := range seeds {
		if seen[m] {
			continue
		}
		seen[m] = true
		candidates = append(candidates, m)
	}
	return candidates
}

// Generate submits the prompt and returns the raw reply text. The candidate
// search is a sequential fold over (version, model) pairs: naming and
// availability failures advance to the next pair while the most recent
// failure is retained for the exhaustion error.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	apiKey := strings.TrimSpace(c.apiKey)
	if apiKey == "" {
		return "", ErrNoAPIKey
	}

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.3,
			TopK:             40,
			TopP:             0.95,
			MaxOutputTokens:  8192,
			ResponseMimeType: "application/json",
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, span := telemetry.Tracer.Start(ctx, "planner.generate")
	defer span.End()

	candidates := c.modelCandidates()
	attempts := 0
	var lastErr error
	var lastStatus int

	for _, version := range apiVersions {
		for _, model := range candidates {
			attempts++
			text, status, err := c.attemptTraced(ctx, version, model, payload)
			if c.metrics != nil {
				c.metrics.RecordCandidateAttempt(version, model, status)
			}
			if err == nil {
				span.SetAttributes(attribute.Int("gemini.attempts", attempts))
				return text, nil
			}
			if !retryable(status, err) {
				span.RecordError(err)
				return "", err
			}
			if status == http.StatusBadRequest {
				log.Printf("[Planner] bad request for %s/%s, trying next variation: %v", version, model, err)
			}
			lastErr = err
			lastStatus = status
		}
	}

	span.SetAttributes(attribute.Int("gemini.attempts", attempts))
	exhausted := &CandidateError{Attempts: attempts, LastStatus: lastStatus, LastErr: lastErr}
	span.RecordError(exhausted)
	return "", exhausted
}

// attemptTraced wraps one attempt in a span carrying the candidate identity.
func (c *Client) attemptTraced(ctx context.Context, version, model string, payload []byte) (string, int, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "planner.attempt",
		trace.WithAttributes(
			attribute.String("gemini.api_version", version),
			attribute.String("gemini.model", model),
		))
	defer span.End()

	text, status, err := c.attempt(ctx, version, model, payload)
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if err != nil {
		span.RecordError(err)
	}
	return text, status, err
}

// retryable reports whether a failed attempt should advance the candidate
// search. Only naming and availability failures (not-found, bad-request)
// are candidate problems; every other status, and errors without a status
// (transport failures, cancellation, empty content), are fatal for the
// whole call.
func retryable(status int, err error) bool {
	if err == nil {
		return false
	}
	return status == http.StatusNotFound || status == http.StatusBadRequest
}

// attempt issues one generateContent request against a single (version,
// model) pair. The returned status is zero when no HTTP response was
// received.
func (c *Client) attempt(ctx context.Context, version, model string, payload []byte) (string, int, error) {
	endpoint := fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s",
		c.baseURL, version, model, url.QueryEscape(strings.TrimSpace(c.apiKey)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, statusError(resp.StatusCode, respBody)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(genResp.Candidates) == 0 ||
		len(genResp.Candidates[0].Content.Parts) == 0 ||
		genResp.Candidates[0].Content.Parts[0].Text == "" {
		return "", resp.StatusCode, ErrEmptyContent
	}

	return genResp.Candidates[0].Content.Parts[0].Text, resp.StatusCode, nil
}

// statusError turns a non-2xx reply into an error, preferring the structured
// API error message when the body parses, falling back to the raw text.
func statusError(status int, body []byte) error {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		msg := ae.Error.Message
		if strings.Contains(msg, "pattern") || strings.Contains(msg, "invalid") || strings.Contains(msg, "format") {
			msg = fmt.Sprintf("API validation error: %s. Check the GEMINI_API_KEY format and model name.", msg)
		}
		return fmt.Errorf("gemini API request failed: %d %s. %s", status, http.StatusText(status), msg)
	}
	return fmt.Errorf("gemini API request failed: %d %s. %s", status, http.StatusText(status), strings.TrimSpace(string(body)))
}
