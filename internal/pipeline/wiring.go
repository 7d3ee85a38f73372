package pipeline

import (
	"context"
	"fmt"

	"cvtailor/internal/ai"
	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/observability"
	"cvtailor/internal/summary"
	"cvtailor/internal/tailoring"
)

// NewFromConfig builds the AI service, summary generator and tailor described
// by cfg. The returned service must be closed by the caller.
func NewFromConfig(ctx context.Context, cfg *config.Config, om *observability.Manager, logger *errors.Logger) (*Pipeline, *ai.Service, error) {
	service, err := ai.NewService(ctx, cfg.AI, om, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AI service: %w", err)
	}

	generator := summary.NewGenerator(service, summary.Options{
		UseAI:           cfg.AI.SummariesEnabled,
		FallbackEnabled: cfg.AI.FallbackEnabled,
		SystemPrompt:    cfg.AI.SystemPrompt,
	}, summary.WithLogger(logger))

	if !generator.AIAvailable() {
		logger.Info("AI summaries unavailable, using templates",
			"summaries_enabled", cfg.AI.SummariesEnabled,
			"api_key_configured", cfg.AI.IsConfigured())
	}

	return New(tailoring.New(cfg.Tailoring), generator, om, logger), service, nil
}
