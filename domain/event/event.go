package event

import (
	"time"

	"community-live/domain"

	"github.com/google/uuid"
)

// DomainEvent is anything the fan-out worker can deliver to room sinks.
type DomainEvent interface {
	RoomID() string
}

// MessageStored is emitted after a chat message completed durable storage.
// The broadcast function only accepts this type, which makes
// persist-before-broadcast a compile-time property rather than a convention.
type MessageStored struct {
	ID        uuid.UUID
	Room      string
	Sender    domain.Profile
	Content   string
	CreatedAt time.Time
}

func (m MessageStored) RoomID() string { return m.Room }

// TypingChanged is ephemeral: never persisted, never rate limited, and
// excluded from the sender's own sink.
type TypingChanged struct {
	Room           string
	UserID         string
	Typing         bool
	ExcludeSession string
}

func (t TypingChanged) RoomID() string { return t.Room }
