package domain

import "time"

// Session is a live connection's runtime identity, distinct from the durable
// user account. Its UserID never changes for the session's lifetime; room
// membership is connection-scoped and dies with the session.
type Session struct {
	ID          string
	UserID      string
	ConnectedAt time.Time
}
