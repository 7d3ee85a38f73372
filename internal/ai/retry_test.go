package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"cvtailor/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func fastRetryPolicy(maxRetries int) retryPolicy {
	return retryPolicy{maxRetries: maxRetries, baseDelay: time.Millisecond, maxDelay: 5 * time.Millisecond}
}

func TestExecuteWithRetry(t *testing.T) {
	logger := errors.NewNopLogger()

	t.Run("retries retryable failures until success", func(t *testing.T) {
		calls := 0
		result, err := executeWithRetry(context.Background(), fastRetryPolicy(3), logger, "generate",
			func(ctx context.Context) (string, error) {
				calls++
				if calls < 3 {
					return "", newStatusError(http.StatusServiceUnavailable, "busy")
				}
				return "done", nil
			})
		require.NoError(t, err)
		assert.Equal(t, "done", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non retryable failure", func(t *testing.T) {
		calls := 0
		_, err := executeWithRetry(context.Background(), fastRetryPolicy(3), logger, "generate",
			func(ctx context.Context) (string, error) {
				calls++
				return "", newStatusError(http.StatusBadRequest, "bad prompt")
			})
		assert.True(t, errors.HasCode(err, errors.ErrCodeAIBadStatus))
		assert.Equal(t, 1, calls)
	})

	t.Run("returns last error unchanged when budget is spent", func(t *testing.T) {
		calls := 0
		_, err := executeWithRetry(context.Background(), fastRetryPolicy(2), logger, "generate",
			func(ctx context.Context) (string, error) {
				calls++
				return "", newStatusError(http.StatusTooManyRequests, "slow down")
			})
		assert.Equal(t, 3, calls)
		assert.Equal(t, "API Error: 429 - slow down", errors.MessageOf(err))
	})

	t.Run("zero retries makes one attempt", func(t *testing.T) {
		calls := 0
		_, err := executeWithRetry(context.Background(), fastRetryPolicy(0), logger, "generate",
			func(ctx context.Context) (string, error) {
				calls++
				return "", newStatusError(http.StatusBadGateway, "")
			})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("context cancellation interrupts backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		policy := retryPolicy{maxRetries: 5, baseDelay: time.Hour, maxDelay: time.Hour}

		_, err := executeWithRetry(ctx, policy, logger, "generate",
			func(ctx context.Context) (string, error) {
				cancel()
				return "", newStatusError(http.StatusServiceUnavailable, "busy")
			})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackoffIsCapped(t *testing.T) {
	policy := retryPolicy{baseDelay: time.Second, maxDelay: 30 * time.Second}

	first := policy.backoff(1)
	assert.GreaterOrEqual(t, first, time.Second)
	assert.Less(t, first, 1100*time.Millisecond)
	assert.Equal(t, 30*time.Second, policy.backoff(10))
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"plain", stderrors.New("boom"), false},
		{"429", newStatusError(http.StatusTooManyRequests, ""), true},
		{"503", newStatusError(http.StatusServiceUnavailable, ""), true},
		{"401", newStatusError(http.StatusUnauthorized, ""), false},
		{"malformed", newMalformedError(nil), false},
		{"timeout", newTimeoutError(context.DeadlineExceeded), false},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), false},
		{"network", errors.NewNetworkError(errors.ErrCodeNetworkFailure, "refused", nil), true},
		{"googleapi 502", &googleapi.Error{Code: http.StatusBadGateway}, true},
		{"googleapi 404", &googleapi.Error{Code: http.StatusNotFound}, false},
		{"genai 500", genai.APIError{Code: http.StatusInternalServerError}, true},
		{"genai 400", genai.APIError{Code: http.StatusBadRequest}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}
