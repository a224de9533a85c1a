package errors

import "fmt"

var (
	// ErrAuthentication covers a missing, malformed or expired credential at
	// connection time. The connection is refused and no session is created.
	ErrAuthentication = fmt.Errorf("authentication failed")

	// ErrValidation covers a missing or empty required field on an inbound
	// event. The connection stays open.
	ErrValidation = fmt.Errorf("validation failed")

	// ErrRateLimited is returned when a sender exhausted its per-room quota.
	ErrRateLimited = fmt.Errorf("rate limit exceeded")

	// ErrNotFound covers references to an unknown room, user or session.
	ErrNotFound = fmt.Errorf("not found")

	// ErrPersistence covers a store failure. A message that failed to persist
	// is never broadcast.
	ErrPersistence = fmt.Errorf("persistence failed")

	// ErrSessionExists signals a duplicate session id registration.
	// This is a programming invariant, not a user-facing error.
	ErrSessionExists = fmt.Errorf("session already registered")

	// ErrRoomFull is returned by the room directory when a join would exceed
	// the room capacity.
	ErrRoomFull = fmt.Errorf("room is full")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)
