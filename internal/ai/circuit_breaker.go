package ai

import (
	stderrors "errors"
	"fmt"

	"cvtailor/internal/config"
	"cvtailor/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// AICircuitBreaker wraps provider calls with the circuit breaker pattern
type AICircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*Completion]
}

// NewAICircuitBreaker returns nil when the breaker is disabled; a nil breaker
// passes calls straight through.
func NewAICircuitBreaker(provider string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *AICircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", provider),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"provider", provider,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &AICircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[*Completion](settings),
	}
}

// Execute runs fn under breaker protection. A rejected call is reported as
// AI_CIRCUIT_OPEN.
func (cb *AICircuitBreaker) Execute(fn func() (*Completion, error)) (*Completion, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}

	completion, err := cb.cb.Execute(fn)
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.NewAIError(errors.ErrCodeAICircuitOpen,
			"AI service temporarily unavailable", err).
			WithContext("breaker", cb.cb.Name())
	}
	return completion, err
}

// GetStats returns circuit breaker statistics
func (cb *AICircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *AICircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}
