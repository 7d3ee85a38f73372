package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"

	"cvtailor/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const timeoutMessage = "request timeout - please try again"

var providerDisplayNames = map[string]string{
	"openrouter": "OpenRouter",
	"gemini":     "Gemini",
}

func newNotConfiguredError(provider string) *errors.AppError {
	name := providerDisplayNames[provider]
	if name == "" {
		name = provider
	}
	return errors.NewConfigError(errors.ErrCodeAINotConfigured, name+" API key not configured", nil)
}

func newTimeoutError(cause error) *errors.AppError {
	return errors.NewNetworkError(errors.ErrCodeAITimeout, timeoutMessage, cause)
}

// newStatusError reports a non-2xx answer from the endpoint
func newStatusError(status int, message string) *errors.AppError {
	if message == "" {
		message = "Unknown error"
	}
	return errors.NewProtocolError(errors.ErrCodeAIBadStatus,
		fmt.Sprintf("API Error: %d - %s", status, message), nil).
		WithContext("status_code", status)
}

func newMalformedError(cause error) *errors.AppError {
	return errors.NewProtocolError(errors.ErrCodeAIMalformedResponse, "Invalid API response format", cause)
}

// classifyTransportError maps a failure that happened before any HTTP status
// was received.
func classifyTransportError(ctx context.Context, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newTimeoutError(err)
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.NewNetworkError(errors.ErrCodeNetworkFailure, "request cancelled", err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return newTimeoutError(err)
	}
	return errors.NewNetworkError(errors.ErrCodeNetworkFailure, "failed to reach text-generation endpoint", err)
}

// statusCodeOf digs the HTTP status out of any of the error shapes the
// providers produce. Zero means no status was seen.
func statusCodeOf(err error) int {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if status, ok := appErr.Context["status_code"].(int); ok {
			return status
		}
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return genaiErr.Code
	}

	var googleErr *googleapi.Error
	if stderrors.As(err, &googleErr) {
		return googleErr.Code
	}
	return 0
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
