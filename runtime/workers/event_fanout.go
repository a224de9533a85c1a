package workers

import (
	"context"
	"log/slog"
	"time"

	"community-live/contract"
	"community-live/domain/event"
)

// EventFanout is the single consumer of the domain event channel. One
// goroutine drains the channel, so events of a room reach every member in
// the order they were enqueued, which is the order they were persisted.
//
// Delivery to connection sinks is best-effort: a slow consumer gets a
// bounded slice of time and is then skipped. EventFanout is not a broker.
type EventFanout struct {
	Log         *slog.Logger
	DomainEvent chan event.DomainEvent
	registry    contract.IRegistry
	sinkTimeout time.Duration
	permanent   []contract.EventSink
}

func NewEventFanout(
	log *slog.Logger,
	domainEvent chan event.DomainEvent,
	registry contract.IRegistry,
	sinkTimeout time.Duration,
) *EventFanout {
	return &EventFanout{
		Log:         log,
		DomainEvent: domainEvent,
		registry:    registry,
		sinkTimeout: sinkTimeout,
	}
}

// Add attaches permanent sinks (timeline cache, search index). They receive
// every event regardless of room membership.
func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.permanent = append(w.permanent, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.DomainEvent:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.Log.Debug("Context done, stopping domainEvent send")
			return nil
		}
	}
}

// Fanout resolves the room membership at delivery time, so sessions that
// joined after the event was enqueued still receive it and sessions that
// left do not.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	var exclude string
	if typing, ok := evt.(event.TypingChanged); ok {
		exclude = typing.ExcludeSession
	}

	for _, sink := range w.registry.SinksForRoom(evt.RoomID(), exclude) {
		w.deliver(ctx, sink, evt)
	}
	for _, sink := range w.permanent {
		w.deliver(ctx, sink, evt)
	}
}

func (w *EventFanout) deliver(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		w.Log.Debug("Sink dropped an event", "room", evt.RoomID(), "error", err)
	}
}
