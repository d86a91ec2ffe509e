// Package mock provides a canned TextProvider for testing and development.
package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/lancecerto/lancecerto/internal/ai"
)

// Provider is a mock text provider for testing and development
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	GenerateTextResponse *ai.Result
	GenerateTextError    error

	// Call tracking for testing
	GenerateTextCalls int
	LastPrompt        string
}

// New creates a new mock provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// GenerateText returns a canned proposal text
func (p *Provider) GenerateText(ctx context.Context, prompt string) (*ai.Result, error) {
	p.GenerateTextCalls++
	p.LastPrompt = prompt

	if p.GenerateTextError != nil {
		return nil, p.GenerateTextError
	}
	if p.GenerateTextResponse != nil {
		return p.GenerateTextResponse, nil
	}

	p.logger.Debug("Mock text generation", "prompt_len", len(prompt))

	return &ai.Result{
		Text: "Olá!\n\nVi a descrição do seu projeto e tenho experiência direta com esse tipo de trabalho.\n\nPosso começar imediatamente e entregar com qualidade.\n\nVamos conversar?",
		Usage: ai.UsageInfo{
			Model:        "mock",
			InputTokens:  len(prompt) / 4,
			OutputTokens: 64,
			Duration:     10 * time.Millisecond,
		},
	}, nil
}
