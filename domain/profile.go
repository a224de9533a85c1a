package domain

// Profile is the public identity attached to broadcast messages.
// It is looked up from the user directory, never derived from the session.
type Profile struct {
	ID          string
	DisplayName string
	Avatar      string
}
