// Package observability aggregates runtime counters for operators.
package observability

import (
	"context"
	"sync/atomic"
	"time"

	"community-live/domain/event"
)

// Stats counts what flows through the broadcast pipeline. It rides the
// fan-out as a permanent sink, so counting can never slow delivery down.
type Stats struct {
	startedAt time.Time

	MessagesBroadcast atomic.Uint64
	TypingRelayed     atomic.Uint64
}

func NewStats() *Stats {
	return &Stats{startedAt: time.Now().UTC()}
}

func (s *Stats) Consume(_ context.Context, e event.DomainEvent) error {
	switch e.(type) {
	case event.MessageStored:
		s.MessagesBroadcast.Add(1)
	case event.TypingChanged:
		s.TypingRelayed.Add(1)
	}
	return nil
}

// Snapshot feeds the debug inspector's stats banner.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"uptime":             time.Since(s.startedAt).Round(time.Second).String(),
		"messages_broadcast": s.MessagesBroadcast.Load(),
		"typing_relayed":     s.TypingRelayed.Load(),
	}
}
