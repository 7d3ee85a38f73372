// Package summary produces the professional summary of a generated document,
// from the text-generation endpoint when it is available and from a local
// template bank otherwise.
package summary

import (
	"context"
	"math/rand/v2"
	"time"

	"cvtailor/internal/ai"
	"cvtailor/internal/errors"
	"cvtailor/internal/types"
)

const (
	msgStarting          = "Initializing summary generation..."
	msgAIGeneration      = "Generating AI-powered summary..."
	msgAICompleted       = "AI summary generated successfully!"
	msgAIFailedPrefix    = "AI generation failed: "
	msgFallback          = "AI generation failed, using template-based summary..."
	msgTemplate          = "Generating template-based summary..."
	msgTemplateCompleted = "Template summary generated successfully!"
)

// RandomSource draws a uniform integer in [0, n)
type RandomSource interface {
	Intn(n int) int
}

type defaultRandom struct{}

func (defaultRandom) Intn(n int) int { return rand.IntN(n) }

// Options are fixed for the lifetime of a Generator
type Options struct {
	UseAI           bool
	FallbackEnabled bool
	// SystemPrompt overrides ai.DefaultSystemPrompt when non-empty.
	SystemPrompt string
}

// Option customises a Generator
type Option func(*Generator)

// WithRandom pins template selection
func WithRandom(r RandomSource) Option {
	return func(g *Generator) { g.random = r }
}

// WithClock sets the time used for experience-years computation
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger attaches a logger for recovered AI failures
func WithLogger(logger *errors.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// Generator runs the summary state machine:
// starting → ai_generation → completed, or
// starting → ai_generation → fallback → template_generation → completed, or
// starting → template_generation → completed.
// With fallback disabled a failed AI call ends in the error stage.
type Generator struct {
	provider ai.Provider
	opts     Options
	random   RandomSource
	now      func() time.Time
	logger   *errors.Logger
}

// NewGenerator creates a Generator. provider may be nil, which behaves like
// an unconfigured endpoint.
func NewGenerator(provider ai.Provider, opts Options, options ...Option) *Generator {
	g := &Generator{
		provider: provider,
		opts:     opts,
		random:   defaultRandom{},
		now:      time.Now,
		logger:   errors.NewNopLogger(),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// Options returns the generator's immutable options
func (g *Generator) Options() Options {
	return g.opts
}

// AIAvailable reports whether Generate will attempt the endpoint
func (g *Generator) AIAvailable() bool {
	return g.opts.UseAI && g.provider != nil && g.provider.IsConfigured()
}

// Generate produces a summary for profile. It only fails when the AI call
// fails and fallback is disabled; the template path never fails.
func (g *Generator) Generate(ctx context.Context, profile *types.CandidateProfile, observer Observer) (*types.SummaryResult, error) {
	if observer == nil {
		observer = NopObserver{}
	}
	emit(observer, types.StageStarting, msgStarting)

	if !g.AIAvailable() {
		return g.fromTemplate(profile, observer), nil
	}

	emit(observer, types.StageAIGeneration, msgAIGeneration)
	completion, err := g.provider.Generate(ctx, ai.Prompt{
		System: ai.SystemPrompt(g.opts.SystemPrompt),
		User:   BuildPrompt(profile),
	})
	if err == nil {
		emit(observer, types.StageCompleted, msgAICompleted)
		return &types.SummaryResult{
			Summary: completion.Text,
			Source:  types.SourceAI,
			Model:   completion.Model,
			Usage:   completion.Usage,
		}, nil
	}

	reason := errors.MessageOf(err)
	if !g.opts.FallbackEnabled {
		emit(observer, types.StageError, msgAIFailedPrefix+reason)
		return nil, err
	}

	g.logger.Warn("AI summary generation failed, falling back to templates",
		"provider", g.provider.Name(),
		"document_type", profile.DocumentType,
		"error_code", errors.CodeOf(err),
		"error", reason)
	emit(observer, types.StageFallback, msgFallback)

	result := g.fromTemplate(profile, observer)
	result.Fallback = true
	result.FallbackReason = reason
	return result, nil
}

func (g *Generator) fromTemplate(profile *types.CandidateProfile, observer Observer) *types.SummaryResult {
	emit(observer, types.StageTemplateGeneration, msgTemplate)

	family := templatesFor(profile.DocumentType)
	idx := g.random.Intn(len(family))
	if idx < 0 || idx >= len(family) {
		idx = 0
	}
	summary := render(family[idx], newTemplateData(profile, g.now()))

	emit(observer, types.StageCompleted, msgTemplateCompleted)
	return &types.SummaryResult{
		Summary: summary,
		Source:  types.SourceTemplate,
	}
}

func emit(observer Observer, stage types.ProgressStage, message string) {
	observer.OnProgress(types.ProgressEvent{Stage: stage, Message: message})
}
