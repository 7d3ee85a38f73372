package ai

import (
	"context"

	"cvtailor/internal/types"
)

// Prompt is one system + user message pair sent to a text-generation endpoint
type Prompt struct {
	System string
	User   string
}

// Completion is the generated prose plus whatever metadata the endpoint reported
type Completion struct {
	Text  string
	Model string
	Usage *types.TokenUsage
}

// Provider is the narrow contract every text-generation backend implements:
// prompt in, text out, or failure.
type Provider interface {
	Generate(ctx context.Context, prompt Prompt) (*Completion, error)
	// IsConfigured reports whether credentials are present. An unconfigured
	// provider is not an error; callers take the template path instead.
	IsConfigured() bool
	Name() string
	Model() string
	Close() error
}
