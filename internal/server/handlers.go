package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"

	"cvtailor/internal/common"
	"cvtailor/internal/errors"
	"cvtailor/internal/formatters"
	"cvtailor/internal/jobtext"
	"cvtailor/internal/summary"
	"cvtailor/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "cvtailor.api"

	errCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.generate")
	defer span.End()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if !isKnownFormat(format) {
		s.writeAppError(ctx, w, span, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported format %q", format), nil))
		return
	}

	profile, err := decodeProfile(r)
	if err != nil {
		s.writeAppError(ctx, w, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("document_type", string(profile.DocumentType)),
		attribute.String("format", format),
	)

	content, err := s.pipeline.Generate(ctx, profile, s.progressLogger(ctx))
	if err != nil {
		s.writeAppError(ctx, w, span, err)
		return
	}
	span.SetAttributes(attribute.String("summary.source", string(content.SummaryResult.Source)))

	if format == "json" {
		writeJSON(w, http.StatusOK, content)
		return
	}

	rendered, err := formatters.GlobalRegistry.Format(content, format)
	if err != nil {
		s.writeAppError(ctx, w, span, errors.NewInternalError(errors.ErrCodeInvalidFormat, "Failed to render content", err))
		return
	}
	contentType := "text/plain; charset=utf-8"
	if format == "markdown" {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", strings.TrimSuffix(content.FileName, ".pdf")+formatExtension(format)))
	_, _ = io.WriteString(w, rendered)
}

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.summary")
	defer span.End()

	profile, err := decodeProfile(r)
	if err != nil {
		s.writeAppError(ctx, w, span, err)
		return
	}

	result, err := s.pipeline.Summary(ctx, profile, s.progressLogger(ctx))
	if err != nil {
		s.writeAppError(ctx, w, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("summary.source", string(result.Source)),
		attribute.Bool("summary.fallback", result.Fallback),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) keywordsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.keywords")
	defer span.End()

	var req KeywordsRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeAppError(ctx, w, span, err)
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		s.writeAppError(ctx, w, span, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"jobDescription field is required", nil))
		return
	}

	text, err := jobtext.Normalize(req.JobDescription)
	if err != nil {
		s.writeAppError(ctx, w, span, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Cannot extract text from jobDescription", err))
		return
	}

	report := s.pipeline.Keywords(text)
	span.SetAttributes(
		attribute.Int("request.job_length", len(req.JobDescription)),
		attribute.Int("keywords", len(report.Keywords)),
		attribute.Int("requirements", len(report.Requirements)),
	)
	writeJSON(w, http.StatusOK, report)
}

// healthHandler reports AI endpoint and certificate state. An open circuit
// breaker only degrades the service since summaries fall back to templates;
// an expired or unreadable certificate makes it unhealthy.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "cvtailor",
		"version": s.Version,
	}
	status := http.StatusOK

	if s.aiService != nil {
		aiHealthy := s.aiService.IsHealthy()
		response["ai"] = map[string]any{
			"provider":   s.aiService.Name(),
			"model":      s.aiService.Model(),
			"configured": s.aiService.IsConfigured(),
			"healthy":    aiHealthy,
		}
		if !aiHealthy {
			response["status"] = "degraded"
		}
	}

	summarySource := types.SourceTemplate
	if s.pipeline.AIAvailable() {
		summarySource = types.SourceAI
	}
	response["summary_source"] = summarySource

	if s.CertReloader != nil {
		certStatus := s.CertReloader.Status()
		response["certificates"] = certStatus
		if healthy, _ := certStatus["healthy"].(bool); !healthy {
			response["status"] = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "cvtailor",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.APIKeys) > 0,
			"tls_mode":               s.TLSConfig.Mode,
		},
	}

	if s.RateLimiter != nil {
		stats := s.RateLimiter.GetStats()
		stats["by_ip"] = s.RateLimit.ByIP
		stats["by_api_key"] = s.RateLimit.ByAPIKey
		response["rate_limiting"] = stats
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.aiService != nil {
		response["ai"] = s.aiService.Stats()
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) progressLogger(ctx context.Context) summary.Observer {
	return summary.NewLoggingObserver(s.Logger.With("request_id", requestID(ctx)))
}

// writeAppError logs err, marks the span failed and writes the mapped response
func (s *Server) writeAppError(ctx context.Context, w http.ResponseWriter, span trace.Span, err error) {
	status := statusFor(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, errors.MessageOf(err))
	span.SetAttributes(
		attribute.String("error.type", string(errors.TypeOf(err))),
		attribute.Int("http.status_code", status),
	)

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "request_id", requestID(ctx), "status", status)
	} else {
		s.Logger.Debug("Request rejected", "request_id", requestID(ctx), "status", status, "error", err.Error())
	}

	writeErrorResponse(w, http.StatusText(status), errors.CodeOf(err), errors.MessageOf(err), status)
}

// statusFor maps an error to its HTTP status: bad input is the caller's
// fault, an absent AI key means the service is unavailable, and endpoint
// failures are reported as gateway errors.
func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeAICircuitOpen:
		return http.StatusServiceUnavailable
	}

	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeConfig:
		return http.StatusServiceUnavailable
	case errors.ErrorTypeNetwork:
		return http.StatusGatewayTimeout
	case errors.ErrorTypeProtocol:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeProfile(r *http.Request) (*types.CandidateProfile, error) {
	body, err := readJSONBody(r)
	if err != nil {
		return nil, err
	}
	return common.DecodeProfile(body)
}

// parseJSONRequest parses a JSON request body into v
func parseJSONRequest(r *http.Request, v any) error {
	body, err := readJSONBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Request body is not valid JSON", err)
	}
	return nil
}

func readJSONBody(r *http.Request) ([]byte, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Content-Type must be application/json", err)
	}

	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return nil, errors.NewValidationError(errCodeRequestTooLarge,
				fmt.Sprintf("Request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeInvalidRequest, "Failed to read request body", err)
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, title, code, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: title, Code: code, Message: message})
}

func isKnownFormat(format string) bool {
	return slices.Contains(formatters.GlobalRegistry.GetSupportedFormats(), format)
}

func formatExtension(format string) string {
	if format == "markdown" {
		return ".md"
	}
	return ".txt"
}
