package ai

import (
	"context"
	stderrors "errors"
	"fmt"

	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/observability"
)

// Service is the endpoint client handed to the summary generator. It applies
// the request timeout, the circuit breaker and the retry loop around a
// Provider, and is itself a Provider.
type Service struct {
	provider Provider
	config   config.AIConfig
	breaker  *AICircuitBreaker
	retry    retryPolicy
	logger   *errors.Logger
}

var _ Provider = (*Service)(nil)

// NewProvider selects the backend named by cfg.Provider
func NewProvider(ctx context.Context, cfg config.AIConfig, logger *errors.Logger) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter, "":
		return NewOpenRouterProvider(cfg, logger), nil
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// NewService creates the configured provider, instruments it with om and
// wraps it in a Service.
func NewService(ctx context.Context, cfg config.AIConfig, om *observability.Manager, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries,
		"configured", cfg.IsConfigured(),
		"circuit_breaker", cfg.CircuitBreaker.Enabled)

	provider, err := NewProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return NewServiceWithProvider(NewInstrumentedProvider(provider, om), cfg, logger), nil
}

// NewServiceWithProvider wraps an already built provider
func NewServiceWithProvider(provider Provider, cfg config.AIConfig, logger *errors.Logger) *Service {
	return &Service{
		provider: provider,
		config:   cfg,
		breaker:  NewAICircuitBreaker(provider.Name(), cfg.CircuitBreaker, logger),
		retry:    defaultRetryPolicy(cfg.MaxRetries),
		logger:   logger,
	}
}

func (s *Service) Name() string       { return s.provider.Name() }
func (s *Service) Model() string      { return s.provider.Model() }
func (s *Service) IsConfigured() bool { return s.provider.IsConfigured() }
func (s *Service) Close() error       { return s.provider.Close() }

// Generate sends prompt to the provider. One timeout bounds the whole call,
// retries included; its expiry surfaces as AI_TIMEOUT.
func (s *Service) Generate(ctx context.Context, prompt Prompt) (*Completion, error) {
	if !s.provider.IsConfigured() {
		return nil, newNotConfiguredError(s.provider.Name())
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	completion, err := s.breaker.Execute(func() (*Completion, error) {
		return executeWithRetry(ctx, s.retry, s.logger, "generate", func(ctx context.Context) (*Completion, error) {
			return s.provider.Generate(ctx, prompt)
		})
	})
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeAITimeout) && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = newTimeoutError(err)
		}
		return nil, err
	}
	return completion, nil
}

// Stats reports provider and breaker state for the /stats endpoint
func (s *Service) Stats() map[string]any {
	return map[string]any{
		"provider":        s.provider.Name(),
		"model":           s.provider.Model(),
		"configured":      s.provider.IsConfigured(),
		"max_retries":     s.retry.maxRetries,
		"timeout":         s.config.Timeout.String(),
		"circuit_breaker": s.breaker.GetStats(),
	}
}

// IsHealthy is false while the circuit breaker is open or half-open
func (s *Service) IsHealthy() bool {
	return s.breaker.IsHealthy()
}
