//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"community-live/domain"
	"community-live/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker lifecycle
// events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery end of the fan-out: one per live connection,
// plus permanent sinks (search index, timeline cache).
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry owns the session directory and the room membership index.
// Both views must stay exact transposes of each other at all times.
type IRegistry interface {
	Register(sessionID, userID string, sink EventSink) (domain.Session, error)
	Unregister(sessionID string)
	Join(sessionID, roomID string) error
	Leave(sessionID, roomID string) error
	MembersOf(roomID string) []string
	SinksForRoom(roomID, excludeSessionID string) []EventSink
	UserOf(sessionID string) (string, bool)
}

// IRateLimiter gates message production per (user, room) pair.
type IRateLimiter interface {
	Allow(userID, roomID string) bool
}

// IMessageStore is the durable message gateway: append plus read-back,
// decoupled from live delivery.
type IMessageStore interface {
	Append(roomID, senderID, content, messageType string) (domain.ChatMessage, error)
	Recent(roomID string, limit int) ([]domain.ChatMessage, error)
	Messages(roomID string, cursor *string) ([]domain.ChatMessage, *string, error)
}

// ITokenValidator maps a transport credential to an authenticated user id.
type ITokenValidator interface {
	Validate(token string) (string, error)
}

// IProfileDirectory resolves the sender block attached to broadcasts.
type IProfileDirectory interface {
	Get(userID string) (domain.Profile, error)
}

// IRoomDirectory is the external room collaborator. The dispatcher trusts
// its join verdict and does not re-derive visibility or capacity.
type IRoomDirectory interface {
	Get(roomID string) (domain.Room, error)
	CheckJoin(roomID, userID string, currentMembers int) error
}

// ISearchIndex indexes stored messages and answers history queries.
type ISearchIndex interface {
	Index(msg event.MessageStored) error
	Search(ctx context.Context, roomID, terms string, limit int) ([]domain.ChatMessage, error)
}

// IDispatcher is the connection-facing surface of the runtime: one method
// per inbound event, each returning the error the transport converts into a
// single private error event.
type IDispatcher interface {
	OnConnect(token string, sink EventSink) (domain.Session, error)
	OnDisconnect(sessionID string)
	OnJoin(sessionID, roomID string) ([]domain.ChatMessage, error)
	OnLeave(sessionID, roomID string) error
	OnSend(ctx context.Context, sessionID, roomID, content string) error
	OnTyping(sessionID, roomID string, typing bool) error
	OnFind(ctx context.Context, sessionID, roomID, terms string) ([]domain.ChatMessage, error)
}
