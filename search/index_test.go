package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"community-live/domain"
	"community-live/domain/event"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewIndex(writer, slog.Default())
}

func storedMessage(room, senderID, content string) event.MessageStored {
	return event.MessageStored{
		ID:        uuid.New(),
		Room:      room,
		Sender:    domain.Profile{ID: senderID, DisplayName: senderID},
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func TestIndex_Search_Matches_Terms(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	// Given indexed messages in one room
	req.NoError(index.Index(storedMessage("42", "user-1", "the deployment failed on friday")))
	req.NoError(index.Index(storedMessage("42", "user-2", "lunch at noon anyone")))

	// When searching for a word from the first message
	results, err := index.Search(context.Background(), "42", "deployment", 10)

	// Then only the matching message comes back, fields intact
	req.NoError(err)
	req.Len(results, 1)
	req.Equal("the deployment failed on friday", results[0].Content)
	req.Equal("user-1", results[0].SenderID)
	req.Equal("42", results[0].Room)
	req.NotZero(results[0].ID)
	req.False(results[0].CreatedAt.IsZero())
}

func TestIndex_Search_Scoped_To_Room(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	// Given the same word indexed in two rooms
	req.NoError(index.Index(storedMessage("42", "user-1", "incident report")))
	req.NoError(index.Index(storedMessage("7", "user-2", "incident drill")))

	// When searching room 42
	results, err := index.Search(context.Background(), "42", "incident", 10)

	// Then room 7 never leaks in
	req.NoError(err)
	req.Len(results, 1)
	req.Equal("42", results[0].Room)
}

func TestIndex_Search_No_Match(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.Index(storedMessage("42", "user-1", "hello world")))

	results, err := index.Search(context.Background(), "42", "absent", 10)

	req.NoError(err)
	req.Empty(results)
}
