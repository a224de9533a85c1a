package runtime

import (
	"context"
	"testing"

	"community-live/domain/event"
	"community-live/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (s nopSink) Consume(_ context.Context, _ event.DomainEvent) error {
	return nil
}

func TestRegistry_Register_And_Join(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()

	// Given no session is connected
	req.Empty(registry.MembersOf("42"))

	// When a session registers and joins a room
	session, err := registry.Register(sessionID, "user-1", nopSink{})
	req.NoError(err)
	req.Equal("user-1", session.UserID)
	req.NoError(registry.Join(sessionID, "42"))

	// Then both sides of the index agree
	req.Equal([]string{sessionID}, registry.MembersOf("42"))
	req.Equal([]string{"42"}, registry.RoomsOf(sessionID))
	req.Len(registry.SinksForRoom("42", ""), 1)

	userID, ok := registry.UserOf(sessionID)
	req.True(ok)
	req.Equal("user-1", userID)
}

func TestRegistry_Register_Duplicate_SessionID(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()

	// Given a registered session
	_, err := registry.Register(sessionID, "user-1", nopSink{})
	req.NoError(err)

	// When the same session id registers again
	_, err = registry.Register(sessionID, "user-2", nopSink{})

	// Then the invariant violation is reported
	req.ErrorIs(err, errors.ErrSessionExists)
}

func TestRegistry_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	_, err := registry.Register(sessionID, "user-1", nopSink{})
	req.NoError(err)

	// When the session joins the same room twice
	req.NoError(registry.Join(sessionID, "42"))
	req.NoError(registry.Join(sessionID, "42"))

	// Then membership holds a single entry
	req.Len(registry.MembersOf("42"), 1)
	req.Len(registry.RoomsOf(sessionID), 1)
}

func TestRegistry_Leave_Unknown_Room_Is_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	_, err := registry.Register(sessionID, "user-1", nopSink{})
	req.NoError(err)

	// When the session leaves a room it never joined
	req.NoError(registry.Leave(sessionID, "42"))

	// Then nothing changed and no error was raised
	req.Empty(registry.MembersOf("42"))
}

func TestRegistry_Unregister_Removes_All_Memberships(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	other := uuid.NewString()

	// Given a session joined to rooms A and B, next to another member
	_, err := registry.Register(sessionID, "user-1", nopSink{})
	req.NoError(err)
	_, err = registry.Register(other, "user-2", nopSink{})
	req.NoError(err)
	req.NoError(registry.Join(sessionID, "A"))
	req.NoError(registry.Join(sessionID, "B"))
	req.NoError(registry.Join(other, "A"))

	// When the session disconnects
	registry.Unregister(sessionID)

	// Then it is gone from every room, immediately
	req.Equal([]string{other}, registry.MembersOf("A"))
	req.Empty(registry.MembersOf("B"))
	_, ok := registry.UserOf(sessionID)
	req.False(ok)
}

func TestRegistry_Unregister_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When an unknown session id is unregistered twice
	registry.Unregister("ghost")
	registry.Unregister("ghost")

	// Then nothing happens
	req.Empty(registry.MembersOf("42"))
}

func TestRegistry_SinksForRoom_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sender := uuid.NewString()
	receiver := uuid.NewString()

	_, err := registry.Register(sender, "user-1", nopSink{})
	req.NoError(err)
	_, err = registry.Register(receiver, "user-2", nopSink{})
	req.NoError(err)
	req.NoError(registry.Join(sender, "42"))
	req.NoError(registry.Join(receiver, "42"))

	// When sinks are resolved with an exclusion (typing indicator path)
	sinks := registry.SinksForRoom("42", sender)

	// Then only the other member remains
	req.Len(sinks, 1)
	req.Len(registry.SinksForRoom("42", ""), 2)
}
