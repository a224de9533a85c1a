package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"community-live/domain"
	"community-live/domain/event"
	"community-live/errors"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

// Index is the full-text side channel next to the durable store. Every
// persisted message is indexed once; lookups never touch badger.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(writer *bluge.Writer, log *slog.Logger) *Index {
	return &Index{writer: writer, log: log}
}

func (i *Index) Index(stored event.MessageStored) error {
	doc := bluge.NewDocument(stored.ID.String()).
		AddField(bluge.NewKeywordField("room", stored.Room).StoreValue()).
		AddField(bluge.NewKeywordField("sender_id", stored.Sender.ID).StoreValue()).
		AddField(bluge.NewTextField("content", stored.Content).StoreValue()).
		AddField(bluge.NewStoredOnlyField("created_at",
			[]byte(strconv.FormatInt(stored.CreatedAt.UnixNano(), 10))))

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

// Search finds messages of one room matching the given terms, best match
// first. The room filter is a hard clause so results never leak across rooms.
func (i *Index) Search(ctx context.Context, roomID, terms string, limit int) ([]domain.ChatMessage, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(roomID).SetField("room")).
		AddMust(bluge.NewMatchQuery(terms).SetField("content"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	var messages []domain.ChatMessage
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		if match == nil {
			break
		}

		var msg domain.ChatMessage
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					msg.ID = id
				}
			case "room":
				msg.Room = string(value)
			case "sender_id":
				msg.SenderID = string(value)
			case "content":
				msg.Content = string(value)
			case "created_at":
				if nanos, parseErr := strconv.ParseInt(string(value), 10, 64); parseErr == nil {
					msg.CreatedAt = time.Unix(0, nanos).UTC()
				}
			}
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		msg.MessageType = domain.DefaultMessageType
		messages = append(messages, msg)
	}
	return messages, nil
}
