package observability

import (
	"context"
	"fmt"
	"time"

	"cvtailor/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom instruments
type Metrics struct {
	// AI endpoint metrics
	AIRequestDuration metric.Float64Histogram
	AIRequests        metric.Int64Counter
	AIErrors          metric.Int64Counter
	AITokenUsage      metric.Int64Histogram

	// Summary and tailoring metrics
	Summaries        metric.Int64Counter
	SummaryFallbacks metric.Int64Counter
	ContentGenerated metric.Int64Counter

	// Infrastructure metrics
	RateLimitHits metric.Int64Counter
	CertReloads   metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AIRequestDuration, err = meter.Float64Histogram(
		"cvtailor_ai_request_duration_seconds",
		metric.WithDescription("Time spent waiting for the text-generation endpoint"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI duration metric: %w", err)
	}

	if m.AIRequests, err = meter.Int64Counter(
		"cvtailor_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	if m.AIErrors, err = meter.Int64Counter(
		"cvtailor_ai_errors_total",
		metric.WithDescription("Total number of failed AI requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	if m.AITokenUsage, err = meter.Int64Histogram(
		"cvtailor_ai_token_usage",
		metric.WithDescription("Token usage per AI request by token type"),
		metric.WithUnit("{token}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if m.Summaries, err = meter.Int64Counter(
		"cvtailor_summaries_total",
		metric.WithDescription("Professional summaries produced, by source"),
	); err != nil {
		return nil, fmt.Errorf("failed to create summaries metric: %w", err)
	}

	if m.SummaryFallbacks, err = meter.Int64Counter(
		"cvtailor_summary_fallbacks_total",
		metric.WithDescription("AI summary failures recovered by the template path"),
	); err != nil {
		return nil, fmt.Errorf("failed to create fallback metric: %w", err)
	}

	if m.ContentGenerated, err = meter.Int64Counter(
		"cvtailor_content_generated_total",
		metric.WithDescription("Tailored documents generated, by document type"),
	); err != nil {
		return nil, fmt.Errorf("failed to create content generated metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"cvtailor_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	if m.CertReloads, err = meter.Int64Counter(
		"cvtailor_cert_reloads_total",
		metric.WithDescription("TLS certificate reload attempts"),
	); err != nil {
		return nil, fmt.Errorf("failed to create certificate reload metric: %w", err)
	}

	return m, nil
}

// AIOperationResult is what an instrumented AI call reports back.
type AIOperationResult struct {
	Error error
	Model string
	Usage *types.TokenUsage
}

// TrackAIOperation runs fn inside an "ai.<operation>" span and records
// duration, request, error and token metrics for it.
func (om *Manager) TrackAIOperation(ctx context.Context, operation, provider string, fn func(context.Context) *AIOperationResult) error {
	ctx, span := om.Tracer("cvtailor.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	if result == nil {
		result = &AIOperationResult{}
	}
	duration := time.Since(start).Seconds()

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("provider", provider),
		attribute.Bool("success", result.Error == nil),
	}
	if result.Model != "" {
		span.SetAttributes(attribute.String("ai.model", result.Model))
	}
	span.SetAttributes(attrs...)

	if result.Usage != nil {
		span.SetAttributes(
			attribute.Int("ai.tokens.prompt", result.Usage.PromptTokens),
			attribute.Int("ai.tokens.completion", result.Usage.CompletionTokens),
			attribute.Int("ai.tokens.total", result.Usage.TotalTokens),
		)
	}

	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, result.Error.Error())
	}

	if om.aiMetricsEnabled() {
		m := om.metrics
		opt := metric.WithAttributes(attrs...)
		if om.config.CustomMetrics.AIOperations.TrackDuration {
			m.AIRequestDuration.Record(ctx, duration, opt)
		}
		m.AIRequests.Add(ctx, 1, opt)
		if result.Error != nil {
			m.AIErrors.Add(ctx, 1, opt)
		}
		if result.Usage != nil && om.config.CustomMetrics.AIOperations.TrackTokenUsage {
			om.recordTokenUsage(ctx, provider, result.Usage)
		}
	}

	return result.Error
}

func (om *Manager) recordTokenUsage(ctx context.Context, provider string, usage *types.TokenUsage) {
	for _, tt := range []struct {
		tokenType string
		value     int
	}{
		{"prompt", usage.PromptTokens},
		{"completion", usage.CompletionTokens},
		{"total", usage.TotalTokens},
	} {
		om.metrics.AITokenUsage.Record(ctx, int64(tt.value), metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordSummary counts a produced summary by source and, for recovered AI
// failures, the fallback.
func (om *Manager) RecordSummary(ctx context.Context, doc types.DocumentType, result *types.SummaryResult) {
	if !om.businessMetricsEnabled() || result == nil {
		return
	}
	if om.config.CustomMetrics.BusinessMetrics.TrackSources {
		om.metrics.Summaries.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", string(result.Source)),
			attribute.String("document_type", string(doc)),
		))
	}
	if result.Fallback && om.config.CustomMetrics.BusinessMetrics.TrackFallbacks {
		om.metrics.SummaryFallbacks.Add(ctx, 1, metric.WithAttributes(
			attribute.String("document_type", string(doc)),
		))
	}
}

// RecordContentGenerated counts a finished generateContent run.
func (om *Manager) RecordContentGenerated(ctx context.Context, doc types.DocumentType, success bool) {
	if !om.businessMetricsEnabled() {
		return
	}
	om.metrics.ContentGenerated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("document_type", string(doc)),
		attribute.Bool("success", success),
	))
}

// RecordRateLimitHit counts a rejected request; limiter is "ip" or "api_key".
func (om *Manager) RecordRateLimitHit(ctx context.Context, limiter string) {
	if !om.infraMetricsEnabled() || !om.config.CustomMetrics.Infrastructure.TrackRateLimits {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limiter", limiter)))
}

// RecordCertReload counts a certificate reload attempt.
func (om *Manager) RecordCertReload(ctx context.Context, success bool) {
	if !om.infraMetricsEnabled() || !om.config.CustomMetrics.Infrastructure.TrackCertReloads {
		return
	}
	om.metrics.CertReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

func (om *Manager) aiMetricsEnabled() bool {
	return om != nil && om.metrics != nil && om.config.CustomMetrics.AIOperations.Enabled
}

func (om *Manager) businessMetricsEnabled() bool {
	return om != nil && om.metrics != nil && om.config.CustomMetrics.BusinessMetrics.Enabled
}

func (om *Manager) infraMetricsEnabled() bool {
	return om != nil && om.metrics != nil && om.config.CustomMetrics.Infrastructure.Enabled
}
