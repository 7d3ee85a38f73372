package summary

import (
	"cvtailor/internal/errors"
	"cvtailor/internal/types"
)

// Observer is notified at every stage transition of a summary run. It cannot
// influence the run.
type Observer interface {
	OnProgress(event types.ProgressEvent)
}

// ObserverFunc adapts a plain function to Observer
type ObserverFunc func(event types.ProgressEvent)

func (f ObserverFunc) OnProgress(event types.ProgressEvent) {
	if f != nil {
		f(event)
	}
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) OnProgress(types.ProgressEvent) {}

// ChannelObserver forwards events to a buffered channel. Events that do not
// fit in the buffer are dropped so a slow reader never stalls generation.
type ChannelObserver struct {
	events chan types.ProgressEvent
}

// NewChannelObserver creates an observer with room for size pending events
func NewChannelObserver(size int) *ChannelObserver {
	return &ChannelObserver{events: make(chan types.ProgressEvent, max(size, 1))}
}

func (c *ChannelObserver) OnProgress(event types.ProgressEvent) {
	select {
	case c.events <- event:
	default:
	}
}

// Events returns the receive side of the stream
func (c *ChannelObserver) Events() <-chan types.ProgressEvent {
	return c.events
}

// Close ends the stream. Call it only after generation has returned.
func (c *ChannelObserver) Close() {
	close(c.events)
}

// LoggingObserver writes each transition to a structured logger
type LoggingObserver struct {
	logger *errors.Logger
}

func NewLoggingObserver(logger *errors.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

func (l *LoggingObserver) OnProgress(event types.ProgressEvent) {
	switch event.Stage {
	case types.StageError, types.StageFallback:
		l.logger.Warn("Summary progress", "stage", event.Stage, "message", event.Message)
	default:
		l.logger.Debug("Summary progress", "stage", event.Stage, "message", event.Message)
	}
}

// Observers fans a single event out to several observers in order
type Observers []Observer

func (o Observers) OnProgress(event types.ProgressEvent) {
	for _, observer := range o {
		if observer != nil {
			observer.OnProgress(event)
		}
	}
}
