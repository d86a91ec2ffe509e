// Package gemini implements the TextProvider interface against Google's
// Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lancecerto/lancecerto/internal/ai"
)

const (
	// APIBaseURL is the base URL for the Generative Language API
	APIBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the default Gemini model to use
	DefaultModel = "gemini-2.5-flash"

	// MaxPromptBytes caps the prompt size sent upstream
	MaxPromptBytes = 64 * 1024
)

// Config contains configuration for the Gemini provider
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string // overridable for tests; defaults to APIBaseURL
	ProviderConfig ai.ProviderConfig
}

// Provider implements the TextProvider interface using the Gemini API
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Gemini provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 60 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// GenerateText sends a prompt to Gemini and returns the generated text
func (p *Provider) GenerateText(ctx context.Context, prompt string) (*ai.Result, error) {
	startTime := time.Now()

	if prompt == "" {
		return nil, ai.WrapError("generate text", ai.ErrInvalidPrompt)
	}
	if len(prompt) > MaxPromptBytes {
		return nil, ai.WrapError("generate text", fmt.Errorf("%w: prompt size %d exceeds maximum %d", ai.ErrInvalidPrompt, len(prompt), MaxPromptBytes))
	}

	body, err := json.Marshal(apiRequest{
		Contents: []apiContent{
			{Parts: []apiPart{{Text: prompt}}},
		},
	})
	if err != nil {
		return nil, ai.WrapError("build request", err)
	}

	resp, err := p.executeWithRetry(ctx, body)
	if err != nil {
		return nil, ai.WrapError("execute request", err)
	}

	text := resp.text()
	if text == "" {
		return nil, ai.WrapError("parse response", ai.ErrEmptyResponse)
	}

	return &ai.Result{
		Text: text,
		Usage: ai.UsageInfo{
			Model:        p.config.Model,
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			Duration:     time.Since(startTime),
		},
	}, nil
}

// endpoint builds the generateContent URL for the configured model.
func (p *Provider) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", p.config.BaseURL, p.config.Model)
}

// executeWithRetry executes the API call with exponential backoff on
// transient errors. The request body is rebuilt on each attempt.
func (p *Provider) executeWithRetry(ctx context.Context, body []byte) (*apiResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.ProviderConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.config.ProviderConfig.RetryBaseDelay * time.Duration(1<<(attempt-1))
			p.logger.Info("Retrying AI request", "attempt", attempt, "delay", delay, "error", lastErr)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := p.execute(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !ai.IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (p *Provider) execute(ctx context.Context, body []byte) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", p.config.APIKey)

	httpResp, err := p.client.Do(req)
	if err != nil {
		// Timeouts and network errors are retryable
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ai.ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, p.classifyError(httpResp.StatusCode, respBody)
	}

	var resp apiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// classifyError maps API status codes to the shared error vocabulary.
func (p *Provider) classifyError(status int, body []byte) error {
	var apiErr apiErrorResponse
	detail := ""
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		detail = apiErr.Error.Message
	}

	switch {
	case status == http.StatusTooManyRequests:
		return ai.ErrRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ai.ErrUnauthorized
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ai.ErrInvalidPrompt, detail)
	case status >= 500:
		return fmt.Errorf("%w: status %d", ai.ErrUnavailable, status)
	default:
		return fmt.Errorf("gemini api error: status %d: %s", status, detail)
	}
}

// =============================================================================
// API types
// =============================================================================

type apiRequest struct {
	Contents []apiContent `json:"contents"`
}

type apiContent struct {
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text"`
}

type apiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []apiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// text concatenates all parts of the first candidate.
func (r *apiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
