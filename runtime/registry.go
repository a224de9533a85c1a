package runtime

import (
	"fmt"
	"time"

	"sync"

	"community-live/contract"
	"community-live/domain"
	"community-live/errors"
)

type Set map[string]struct{}

type sessionEntry struct {
	userID      string
	sink        contract.EventSink
	rooms       Set
	connectedAt time.Time
}

// Registry owns the live-connection state: the session directory and the
// room membership index. The two maps are mutated together under one lock so
// roomMembers is always the exact transpose of the union of session rooms.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*sessionEntry // session id -> entry
	roomMembers map[string]Set           // room id -> session ids
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]*sessionEntry),
		roomMembers: make(map[string]Set),
	}
}

// Register creates the session for a freshly authenticated connection.
// A duplicate session id is a programming invariant violation, not a
// user-facing error.
func (r *Registry) Register(sessionID, userID string, sink contract.EventSink) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; ok {
		return domain.Session{}, fmt.Errorf("%w: %s", errors.ErrSessionExists, sessionID)
	}

	now := time.Now().UTC()
	r.sessions[sessionID] = &sessionEntry{
		userID:      userID,
		sink:        sink,
		rooms:       make(Set),
		connectedAt: now,
	}
	return domain.Session{ID: sessionID, UserID: userID, ConnectedAt: now}, nil
}

// Unregister removes a session and its membership everywhere. It is
// idempotent: removing an unknown session id is a no-op, which guards
// against double-disconnect events.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	for roomID := range entry.rooms {
		r.removeMember(roomID, sessionID)
	}
	delete(r.sessions, sessionID)
}

// Join adds the session to a room on both sides of the index. Joining a room
// twice is a no-op. Capacity and visibility checks belong to the caller.
func (r *Registry) Join(sessionID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", errors.ErrNotFound, sessionID)
	}
	entry.rooms[roomID] = struct{}{}

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][sessionID] = struct{}{}
	return nil
}

// Leave is the symmetric removal; leaving a room not joined is a no-op.
func (r *Registry) Leave(sessionID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", errors.ErrNotFound, sessionID)
	}
	delete(entry.rooms, roomID)
	r.removeMember(roomID, sessionID)
	return nil
}

// MembersOf returns the session ids currently joined to a room. The snapshot
// reflects every join/leave/unregister completed before the call.
func (r *Registry) MembersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(members))
	for sessionID := range members {
		out = append(out, sessionID)
	}
	return out
}

// SinksForRoom resolves the live sinks for fan-out. It is called after
// persistence completes so delivery always targets the member set at
// broadcast time, not at send-initiation time.
func (r *Registry) SinksForRoom(roomID, excludeSessionID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for sessionID := range members {
		if sessionID == excludeSessionID {
			continue
		}
		if entry, exists := r.sessions[sessionID]; exists {
			activeSinks = append(activeSinks, entry.sink)
		}
	}
	return activeSinks
}

// UserOf resolves the immutable user identity behind a session.
func (r *Registry) UserOf(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}
	return entry.userID, true
}

// RoomsOf returns the rooms a session has joined.
func (r *Registry) RoomsOf(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entry.rooms))
	for roomID := range entry.rooms {
		out = append(out, roomID)
	}
	return out
}

// removeMember must be called with the write lock held. Empty member sets
// are removed entirely so dead rooms don't accumulate over time.
func (r *Registry) removeMember(roomID, sessionID string) {
	members, ok := r.roomMembers[roomID]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.roomMembers, roomID)
	}
}
