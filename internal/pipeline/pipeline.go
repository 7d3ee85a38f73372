// Package pipeline assembles a generated document: the professional summary
// and the tailored sections are produced concurrently and joined once both
// have settled.
package pipeline

import (
	"context"
	"time"

	"cvtailor/internal/errors"
	"cvtailor/internal/observability"
	"cvtailor/internal/summary"
	"cvtailor/internal/tailoring"
	"cvtailor/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const tracerName = "cvtailor.pipeline"

// Pipeline runs generateContent. It keeps no per-request state and is safe
// for concurrent use.
type Pipeline struct {
	tailor    *tailoring.Tailor
	summaries *summary.Generator
	om        *observability.Manager
	logger    *errors.Logger
	now       func() time.Time
}

// New wires a pipeline. om may be nil.
func New(tailor *tailoring.Tailor, summaries *summary.Generator, om *observability.Manager, logger *errors.Logger) *Pipeline {
	return &Pipeline{
		tailor:    tailor,
		summaries: summaries,
		om:        om,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate produces the full document content for profile. The only error
// source is the AI summary path with fallback disabled.
func (p *Pipeline) Generate(ctx context.Context, profile *types.CandidateProfile, observer summary.Observer) (*types.GeneratedContent, error) {
	ctx, span := p.om.Tracer(tracerName).Start(ctx, "pipeline.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("document_type", string(profile.DocumentType)),
		attribute.Bool("auto_summary", profile.WantsGeneratedSummary()),
		attribute.Int("input.skills", len(profile.Skills)),
		attribute.Int("input.job_description_length", len(profile.JobDescription)),
	)

	var (
		result  *types.SummaryResult
		content types.TailoredContent
	)

	if !profile.WantsGeneratedSummary() {
		result = manualSummary(profile)
		content = p.tailor.Content(profile, result.Summary)
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			result, err = p.summaries.Generate(gctx, profile, observer)
			return err
		})
		g.Go(func() error {
			content = p.tailor.Content(profile, "")
			return nil
		})

		if err := g.Wait(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.om.RecordContentGenerated(ctx, profile.DocumentType, false)
			p.logger.LogError(err, "Content generation failed",
				"document_type", profile.DocumentType)
			return nil, err
		}
		content.Summary = result.Summary
	}

	p.om.RecordSummary(ctx, profile.DocumentType, result)
	p.om.RecordContentGenerated(ctx, profile.DocumentType, true)
	span.SetAttributes(attribute.String("summary.source", string(result.Source)))

	p.logger.Info("Content generated",
		"document_type", profile.DocumentType,
		"summary_source", result.Source,
		"fallback", result.Fallback,
		"skills", content.Skills.Len(),
		"experience_entries", len(content.WorkExperience),
		"projects", len(content.Projects),
		"certifications", len(content.Certifications))

	return &types.GeneratedContent{
		TailoredContent: content,
		DocumentType:    profile.DocumentType,
		SummaryResult:   result,
		FileName:        tailoring.FileName(profile.FullName, profile.DocumentType),
		GeneratedAt:     p.now().UTC(),
	}, nil
}

// Summary runs only the summary step, honouring the manual-summary flag
func (p *Pipeline) Summary(ctx context.Context, profile *types.CandidateProfile, observer summary.Observer) (*types.SummaryResult, error) {
	if !profile.WantsGeneratedSummary() {
		return manualSummary(profile), nil
	}

	ctx, span := p.om.Tracer(tracerName).Start(ctx, "pipeline.summary")
	defer span.End()

	result, err := p.summaries.Generate(ctx, profile, observer)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	p.om.RecordSummary(ctx, profile.DocumentType, result)
	return result, nil
}

// Keywords reports what the tailoring logic extracts from a job description
func (p *Pipeline) Keywords(jobDescription string) types.KeywordReport {
	return p.tailor.Report(jobDescription)
}

// AIAvailable reports whether summaries will attempt the remote endpoint
func (p *Pipeline) AIAvailable() bool {
	return p.summaries.AIAvailable()
}

func manualSummary(profile *types.CandidateProfile) *types.SummaryResult {
	return &types.SummaryResult{
		Summary: profile.ProfessionalSummary,
		Source:  types.SourceManual,
	}
}
