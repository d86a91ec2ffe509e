// Package ai defines the interface to the external text-generation
// collaborator and the error vocabulary shared by its implementations.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TextProvider generates text from a prompt. Implementations are slow,
// remote, and may fail; callers surface failures to the user rather than
// queueing or compensating.
type TextProvider interface {
	// GenerateText sends a prompt to the provider and returns the generated
	// text with usage information.
	GenerateText(ctx context.Context, prompt string) (*Result, error)
}

// Result contains generated text and usage metadata.
type Result struct {
	Text  string
	Usage UsageInfo
}

// UsageInfo tracks provider usage for monitoring.
type UsageInfo struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// ProviderConfig contains common configuration for providers.
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error values for provider operations.
var (
	// ErrRateLimit indicates the provider's rate limit has been exceeded
	ErrRateLimit = errors.New("ai provider rate limit exceeded")

	// ErrTimeout indicates the request timed out
	ErrTimeout = errors.New("ai request timed out")

	// ErrUnavailable indicates the provider is temporarily unavailable
	ErrUnavailable = errors.New("ai service temporarily unavailable")

	// ErrUnauthorized indicates invalid API credentials
	ErrUnauthorized = errors.New("ai provider authentication failed")

	// ErrInvalidPrompt indicates the prompt was rejected by the provider
	ErrInvalidPrompt = errors.New("prompt rejected by ai provider")

	// ErrEmptyResponse indicates the provider returned no usable text
	ErrEmptyResponse = errors.New("ai provider returned an empty response")
)

// IsRetryable returns true if the error is transient and can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable)
}

// WrapError wraps an error with context about the AI operation.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
