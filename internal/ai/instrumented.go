package ai

import (
	"context"

	"cvtailor/internal/observability"
)

// InstrumentedProvider decorates a Provider with an "ai.generate" span and
// the AI request metrics. Every attempt, retries included, is recorded.
type InstrumentedProvider struct {
	Provider
	om *observability.Manager
}

// NewInstrumentedProvider wraps p; a nil manager records nothing.
func NewInstrumentedProvider(p Provider, om *observability.Manager) *InstrumentedProvider {
	return &InstrumentedProvider{Provider: p, om: om}
}

func (ip *InstrumentedProvider) Generate(ctx context.Context, prompt Prompt) (*Completion, error) {
	var completion *Completion
	err := ip.om.TrackAIOperation(ctx, "generate", ip.Name(), func(ctx context.Context) *observability.AIOperationResult {
		var err error
		completion, err = ip.Provider.Generate(ctx, prompt)

		result := &observability.AIOperationResult{Error: err, Model: ip.Model()}
		if completion != nil {
			result.Model = completion.Model
			result.Usage = completion.Usage
		}
		return result
	})
	if err != nil {
		return nil, err
	}
	return completion, nil
}
