// Package sink holds permanent event consumers that ride the broadcast
// fan-out next to the live connections.
package sink

import (
	"context"
	"log/slog"

	"community-live/contract"
	"community-live/domain/event"
)

// SearchSink feeds every stored message into the full-text index. Indexing
// failures are logged, never propagated: a broken index must not break
// delivery to the room.
type SearchSink struct {
	index contract.ISearchIndex
	log   *slog.Logger
}

func NewSearchSink(index contract.ISearchIndex, log *slog.Logger) *SearchSink {
	return &SearchSink{index: index, log: log}
}

func (s *SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	stored, ok := e.(event.MessageStored)
	if !ok {
		return nil
	}
	if err := s.index.Index(stored); err != nil {
		s.log.Error("Indexing failed", "message_id", stored.ID, "room", stored.Room, "error", err)
	}
	return nil
}
