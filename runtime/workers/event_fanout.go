package workers

import (
	"context"
	"log/slog"
	"time"

	"trade-lab/contract"
	"trade-lab/domain/event"
	"trade-lab/observability"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout broadcasts domain events to in-process consumers.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. Sinks are called one after the other so that a
// sink sees the events in publication order. Each call is bounded by the sink
// timeout; a sink that overruns it is abandoned for that event.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
	monitoring  *observability.MonitoringManager
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent, sinks []contract.EventSink,
	sinkTimeout time.Duration, monitoring *observability.MonitoringManager) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      events,
		sinks:       sinks,
		sinkTimeout: sinkTimeout,
		monitoring:  monitoring,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed, stopping fanout")
				return nil
			}
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout hands evt to every sink.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		w.consume(ctx, sink, evt)
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sink.Consume(sinkCtx, evt)
	}()

	select {
	case err := <-done:
		if err != nil {
			w.monitoring.IncrSinkFailures()
			w.log.Warn("Sink failed to consume event", "type", evt.Type(), "error", err)
		}
	case <-sinkCtx.Done():
		w.monitoring.IncrSinkFailures()
		w.log.Warn("Sink timed out", "type", evt.Type(), "timeout", w.sinkTimeout)
	}
}
