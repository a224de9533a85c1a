// Package domain contains core concepts of the live chat system.
// This file defines ChatMessage and related rules.
// Messages are immutable once stored and validated by the domain.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultMessageType = "text"

// ChatMessage represents an immutable, durable chat event.
type ChatMessage struct {
	ID          uuid.UUID
	Room        string
	SenderID    string
	Content     string
	MessageType string
	CreatedAt   time.Time
}

// HasContent reports whether the content survives trimming.
// A message that is empty after trim must be rejected before persistence.
func HasContent(content string) bool {
	return strings.TrimSpace(content) != ""
}
