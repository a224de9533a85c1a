package projection

import (
	"context"
	"fmt"
	"testing"
	"time"

	"community-live/domain"
	"community-live/domain/event"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func storedEvent(room, content string) event.MessageStored {
	return event.MessageStored{
		ID:        uuid.New(),
		Room:      room,
		Sender:    domain.Profile{ID: "user-1", DisplayName: "Alice"},
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func TestTimeline_Keeps_Order(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(10)
	ctx := context.Background()

	// Given three messages consumed in order
	for _, c := range []string{"one", "two", "three"} {
		req.NoError(timeline.Consume(ctx, storedEvent("42", c)))
	}

	// Then Recent replays them oldest first
	recent := timeline.Recent("42")
	req.Equal([]string{"one", "two", "three"}, lo.Map(recent, contentOf))
}

func TestTimeline_Capacity_Drops_Oldest(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		req.NoError(timeline.Consume(ctx, storedEvent("42", fmt.Sprintf("msg-%d", i))))
	}

	recent := timeline.Recent("42")
	req.Equal([]string{"msg-3", "msg-4", "msg-5"}, lo.Map(recent, contentOf))
}

func TestTimeline_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(10)
	ctx := context.Background()

	req.NoError(timeline.Consume(ctx, storedEvent("42", "in forty-two")))
	req.NoError(timeline.Consume(ctx, storedEvent("7", "in seven")))

	req.Equal([]string{"in forty-two"}, lo.Map(timeline.Recent("42"), contentOf))
	req.Equal([]string{"in seven"}, lo.Map(timeline.Recent("7"), contentOf))
	req.Nil(timeline.Recent("9"))
}

func TestTimeline_Ignores_Other_Events(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(10)

	// Typing notifications never reach the cache
	err := timeline.Consume(context.Background(), event.TypingChanged{Room: "42", UserID: "user-1", Typing: true})

	req.NoError(err)
	req.Nil(timeline.Recent("42"))
}

func contentOf(msg domain.ChatMessage, _ int) string {
	return msg.Content
}
