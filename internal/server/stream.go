package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"cvtailor/internal/errors"
	"cvtailor/internal/summary"
	"cvtailor/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// progressBuffer bounds the events queued between the generator and a slow
// client; extra events are dropped rather than stalling generation.
const progressBuffer = 16

type summaryOutcome struct {
	result *types.SummaryResult
	err    error
}

// summaryStreamHandler runs the summary generator and relays every stage as a
// server-sent "progress" event, followed by one "result" or "error" event.
func (s *Server) summaryStreamHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.om.Tracer(tracerName).Start(r.Context(), "api.summary_stream")
	defer span.End()

	profile, err := decodeProfile(r)
	if err != nil {
		s.writeAppError(ctx, w, span, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	events := summary.NewChannelObserver(progressBuffer)
	done := make(chan summaryOutcome, 1)
	go func() {
		result, err := s.pipeline.Summary(ctx, profile, summary.Observers{events, s.progressLogger(ctx)})
		events.Close()
		done <- summaryOutcome{result: result, err: err}
	}()

	relayed := 0
	for event := range events.Events() {
		if err := writeEvent(w, rc, "progress", event); err != nil {
			s.Logger.Debug("Progress stream write failed", "request_id", requestID(ctx), "error", err)
		}
		relayed++
	}

	outcome := <-done
	span.SetAttributes(attribute.Int("progress_events", relayed))
	if outcome.err != nil {
		span.RecordError(outcome.err)
		s.Logger.LogError(outcome.err, "Summary stream failed", "request_id", requestID(ctx))
		_ = writeEvent(w, rc, "error", ErrorResponse{
			Error:   http.StatusText(statusFor(outcome.err)),
			Code:    errors.CodeOf(outcome.err),
			Message: errors.MessageOf(outcome.err),
		})
		return
	}

	span.SetAttributes(attribute.String("summary.source", string(outcome.result.Source)))
	_ = writeEvent(w, rc, "result", outcome.result)
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	return rc.Flush()
}
