package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"math"
	"math/big"
	"net"
	"time"

	"cvtailor/internal/errors"
)

// retryPolicy bounds the retry loop; all attempts share the caller's deadline.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func defaultRetryPolicy(maxRetries int) retryPolicy {
	return retryPolicy{
		maxRetries: max(maxRetries, 0),
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
	}
}

// backoff returns the wait before the given retry attempt (1-based):
// exponential growth plus up to 10% jitter, capped at maxDelay.
func (p retryPolicy) backoff(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * p.baseDelay

	var jitter time.Duration
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if jitterBig, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(jitterBig.Int64())
		}
	}
	return min(baseDelay+jitter, p.maxDelay)
}

// executeWithRetry runs fn until it succeeds, returns a non-retryable error,
// or the retry budget is spent. The last error is returned unchanged.
func executeWithRetry[T any](ctx context.Context, policy retryPolicy, logger *errors.Logger, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", policy.maxRetries,
				"error", lastErr.Error())

			timer := time.NewTimer(policy.backoff(attempt))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	if policy.maxRetries > 0 {
		logger.LogError(lastErr, "AI operation failed after all retry attempts",
			"operation", operation,
			"max_retries", policy.maxRetries)
	}
	return zero, lastErr
}

// isRetryableError reports whether another attempt could succeed: throttling,
// upstream 5xx and transport failures qualify, an exhausted deadline does not.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.HasCode(err, errors.ErrCodeAITimeout) {
		return false
	}
	if errors.HasCode(err, errors.ErrCodeNetworkFailure) {
		return true
	}
	if isRetryableStatus(statusCodeOf(err)) {
		return true
	}

	var netErr net.Error
	return stderrors.As(err, &netErr)
}
