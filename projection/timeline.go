// Package projection builds in-memory views from observed events.
// Handles ordering and retention. Does not emit events itself.
package projection

import (
	"context"
	"sync"

	"community-live/domain"
	"community-live/domain/event"
)

// Timeline keeps the most recent messages of every room so a joining
// session can be caught up without a disk read. Capacity bounds each
// room's slice; older entries fall off the front.
type Timeline struct {
	mu       sync.RWMutex
	capacity int
	rooms    map[string][]domain.ChatMessage
}

func NewTimeline(capacity int) *Timeline {
	return &Timeline{
		capacity: capacity,
		rooms:    make(map[string][]domain.ChatMessage),
	}
}

// Consume lets the timeline ride the broadcast fan-out as a permanent sink.
func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	stored, ok := e.(event.MessageStored)
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	messages := append(t.rooms[stored.Room], fromEvent(stored))
	if overflow := len(messages) - t.capacity; overflow > 0 {
		messages = messages[overflow:]
	}
	t.rooms[stored.Room] = messages
	return nil
}

// Recent returns a copy of the cached tail for a room, oldest first.
func (t *Timeline) Recent(roomID string) []domain.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cached := t.rooms[roomID]
	if len(cached) == 0 {
		return nil
	}
	out := make([]domain.ChatMessage, len(cached))
	copy(out, cached)
	return out
}

func fromEvent(stored event.MessageStored) domain.ChatMessage {
	return domain.ChatMessage{
		ID:          stored.ID,
		Room:        stored.Room,
		SenderID:    stored.Sender.ID,
		Content:     stored.Content,
		MessageType: domain.DefaultMessageType,
		CreatedAt:   stored.CreatedAt,
	}
}
