package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider counts calls and answers through generate.
type fakeProvider struct {
	configured bool
	calls      atomic.Int32
	generate   func(ctx context.Context, call int) (*Completion, error)
}

func (f *fakeProvider) Generate(ctx context.Context, prompt Prompt) (*Completion, error) {
	call := int(f.calls.Add(1))
	return f.generate(ctx, call)
}

func (f *fakeProvider) IsConfigured() bool { return f.configured }
func (f *fakeProvider) Name() string       { return config.ProviderOpenRouter }
func (f *fakeProvider) Model() string      { return "fake-model" }
func (f *fakeProvider) Close() error       { return nil }

func succeedWith(text string) func(context.Context, int) (*Completion, error) {
	return func(context.Context, int) (*Completion, error) {
		return &Completion{Text: text, Model: "fake-model"}, nil
	}
}

func TestServiceGenerate(t *testing.T) {
	provider := &fakeProvider{configured: true, generate: succeedWith("A summary.")}
	svc := NewServiceWithProvider(provider, testAIConfig(""), errors.NewNopLogger())

	completion, err := svc.Generate(context.Background(), Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "A summary.", completion.Text)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestServiceNotConfiguredSkipsProvider(t *testing.T) {
	provider := &fakeProvider{generate: succeedWith("unused")}
	svc := NewServiceWithProvider(provider, testAIConfig(""), errors.NewNopLogger())

	_, err := svc.Generate(context.Background(), Prompt{User: "x"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAINotConfigured))
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
	assert.Zero(t, provider.calls.Load())
}

func TestServiceTimeout(t *testing.T) {
	provider := &fakeProvider{configured: true, generate: func(ctx context.Context, _ int) (*Completion, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := testAIConfig("")
	cfg.Timeout = 20 * time.Millisecond
	svc := NewServiceWithProvider(provider, cfg, errors.NewNopLogger())

	start := time.Now()
	_, err := svc.Generate(context.Background(), Prompt{User: "x"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAITimeout))
	assert.Equal(t, "request timeout - please try again", errors.MessageOf(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestServiceRetriesWithinTimeout(t *testing.T) {
	provider := &fakeProvider{configured: true, generate: func(ctx context.Context, call int) (*Completion, error) {
		if call == 1 {
			return nil, newStatusError(http.StatusServiceUnavailable, "busy")
		}
		return &Completion{Text: "second time lucky"}, nil
	}}
	cfg := testAIConfig("")
	cfg.MaxRetries = 2
	svc := NewServiceWithProvider(provider, cfg, errors.NewNopLogger())
	svc.retry = fastRetryPolicy(2)

	completion, err := svc.Generate(context.Background(), Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "second time lucky", completion.Text)
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestServiceCircuitBreakerOpens(t *testing.T) {
	provider := &fakeProvider{configured: true, generate: func(context.Context, int) (*Completion, error) {
		return nil, newStatusError(http.StatusBadRequest, "rejected")
	}}
	cfg := testAIConfig("")
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
	svc := NewServiceWithProvider(provider, cfg, errors.NewNopLogger())

	for range 2 {
		_, err := svc.Generate(context.Background(), Prompt{User: "x"})
		assert.True(t, errors.HasCode(err, errors.ErrCodeAIBadStatus))
	}
	assert.False(t, svc.IsHealthy())

	_, err := svc.Generate(context.Background(), Prompt{User: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeAICircuitOpen))
	assert.Equal(t, int32(2), provider.calls.Load())

	stats := svc.Stats()
	breaker, ok := stats["circuit_breaker"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "open", breaker["state"])
	assert.Equal(t, "AI-openrouter", breaker["name"])
}

func TestCircuitBreakerDisabledPassesThrough(t *testing.T) {
	var cb *AICircuitBreaker
	assert.Nil(t, NewAICircuitBreaker("openrouter", config.CircuitBreakerConfig{}, errors.NewNopLogger()))

	completion, err := cb.Execute(func() (*Completion, error) { return &Completion{Text: "ok"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Text)
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, map[string]any{"enabled": false}, cb.GetStats())
}

func TestNewProvider(t *testing.T) {
	logger := errors.NewNopLogger()

	provider, err := NewProvider(context.Background(), testAIConfig(""), logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenRouterProvider{}, provider)

	cfg := testAIConfig("")
	cfg.Provider = config.ProviderGemini
	cfg.APIKey = ""
	provider, err = NewProvider(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.False(t, provider.IsConfigured())
	_, err = provider.Generate(context.Background(), Prompt{User: "x"})
	assert.Equal(t, "Gemini API key not configured", errors.MessageOf(err))

	cfg.Provider = "openai"
	_, err = NewProvider(context.Background(), cfg, logger)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}

func TestInstrumentedProviderRecordsRequests(t *testing.T) {
	om, err := observability.NewManager(config.ObservabilityConfig{
		Enabled:     true,
		ServiceName: "cvtailor-test",
		Metrics:     config.MetricsConfig{Enabled: true},
		Prometheus:  config.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		CustomMetrics: config.CustomMetricsConfig{
			AIOperations: config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true},
		},
	}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })

	provider := NewInstrumentedProvider(&fakeProvider{configured: true, generate: succeedWith("ok")}, om)
	completion, err := provider.Generate(context.Background(), Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Text)

	rec := httptest.NewRecorder()
	om.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cvtailor_ai_requests_total")
}

func TestInstrumentedProviderWithoutManager(t *testing.T) {
	failure := newStatusError(http.StatusBadGateway, "")
	provider := NewInstrumentedProvider(&fakeProvider{configured: true, generate: func(context.Context, int) (*Completion, error) {
		return nil, failure
	}}, nil)

	_, err := provider.Generate(context.Background(), Prompt{User: "x"})
	assert.ErrorIs(t, err, failure)
}
