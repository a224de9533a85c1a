package domain

// Room is a durable, pre-existing group-chat channel. The live subsystem
// only references rooms; creation and administration happen elsewhere.
type Room struct {
	ID          string
	Name        string
	Description string
	Avatar      string
	IsPublic    bool
	MaxMembers  int
}
