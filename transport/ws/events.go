package ws

import (
	"encoding/json"
	"time"

	"community-live/domain"
	"community-live/domain/event"
)

// Wire envelope: every frame in both directions is {"event": ..., "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	EventJoin      = "join_group"
	EventLeave     = "leave_group"
	EventSend      = "send_message"
	EventTypeStart = "typing_start"
	EventTypeStop  = "typing_stop"
	EventFind      = "find_messages"
)

// Short inbound names still sent by older clients.
const (
	eventJoinAlias      = "join"
	eventLeaveAlias     = "leave"
	eventSendAlias      = "new_message"
	eventTypeStartAlias = "typing"
	eventTypeStopAlias  = "stop_typing"
)

// Outbound event names.
const (
	EventConnected     = "connected"
	EventJoined        = "joined_group"
	EventLeft          = "left_group"
	EventMessage       = "message_received"
	EventTyping        = "user_typing"
	EventSearchResults = "search_results"
	EventError         = "error"
)

type JoinPayload struct {
	GroupID string `json:"groupId" validate:"required"`
}

type LeavePayload struct {
	GroupID string `json:"groupId" validate:"required"`
}

type SendPayload struct {
	GroupID string `json:"groupId" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type TypingPayload struct {
	GroupID string `json:"groupId" validate:"required"`
}

type FindPayload struct {
	GroupID string `json:"groupId" validate:"required"`
	Terms   string `json:"terms" validate:"required"`
}

type ConnectedPayload struct {
	SID    string `json:"sid"`
	UserID string `json:"userId"`
}

type JoinedPayload struct {
	GroupID  string           `json:"groupId"`
	Messages []MessagePayload `json:"messages"`
}

type LeftPayload struct {
	GroupID string `json:"groupId"`
}

type SenderPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
}

type MessagePayload struct {
	ID        string         `json:"id"`
	GroupID   string         `json:"groupId"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	Sender    *SenderPayload `json:"sender,omitempty"`
}

type UserTypingPayload struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
	Typing  bool   `json:"typing"`
}

type SearchResultsPayload struct {
	GroupID  string           `json:"groupId"`
	Messages []MessagePayload `json:"messages"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newEnvelope(name string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: name, Data: data}, nil
}

func fromStored(stored event.MessageStored) MessagePayload {
	return MessagePayload{
		ID:        stored.ID.String(),
		GroupID:   stored.Room,
		Content:   stored.Content,
		CreatedAt: stored.CreatedAt,
		Sender: &SenderPayload{
			ID:          stored.Sender.ID,
			DisplayName: stored.Sender.DisplayName,
			Avatar:      stored.Sender.Avatar,
		},
	}
}

func fromChatMessage(msg domain.ChatMessage) MessagePayload {
	return MessagePayload{
		ID:        msg.ID.String(),
		GroupID:   msg.Room,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func fromChatMessages(messages []domain.ChatMessage) []MessagePayload {
	out := make([]MessagePayload, 0, len(messages))
	for _, msg := range messages {
		out = append(out, fromChatMessage(msg))
	}
	return out
}
