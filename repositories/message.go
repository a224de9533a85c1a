package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"community-live/domain"
	"community-live/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MessageRepository is the durable message gateway. Persistence is decoupled
// from live delivery: the dispatcher appends here first and only broadcasts
// records that made it to disk.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type diskMessage struct {
	ID          uuid.UUID `json:"id"`
	Room        string    `json:"room"`
	SenderID    string    `json:"sender_id"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	At          int64     `json:"at"` // unix nanoseconds
}

// Append validates, stamps and persists a chat message, returning the stored
// record including its assigned identifier.
//
// The key is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
func (m MessageRepository) Append(roomID, senderID, content, messageType string) (domain.ChatMessage, error) {
	if !domain.HasContent(content) {
		return domain.ChatMessage{}, fmt.Errorf("%w: empty content", errors.ErrValidation)
	}
	if messageType == "" {
		messageType = domain.DefaultMessageType
	}

	msg := domain.ChatMessage{
		ID:          uuid.New(),
		Room:        roomID,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		CreatedAt:   time.Now().UTC(),
	}

	key := fmt.Sprintf("msg:%s:%019d:%s", msg.Room, msg.CreatedAt.UnixNano(), msg.ID)
	bytes, err := json.Marshal(fromChatMessage(msg))
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return msg, nil
}

// Recent returns up to limit messages for a room, oldest first. Used for
// the history replay on join and by the REST history collaborator.
func (m MessageRepository) Recent(roomID string, limit int) ([]domain.ChatMessage, error) {
	messages, _, err := m.page(roomID, nil, limit)
	if err != nil {
		return nil, err
	}
	// The reverse scan yields newest first; history readers want ascending.
	lo.Reverse(messages)
	return messages, nil
}

// Messages retrieves one page of room history using a prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted
// by time. The returned cursor resumes the scan on the next call.
func (m MessageRepository) Messages(roomID string, cursor *string) ([]domain.ChatMessage, *string, error) {
	limit := 0
	if m.limitMessages != nil {
		limit = *m.limitMessages
	}
	return m.page(roomID, cursor, limit)
}

func (m MessageRepository) page(roomID string, cursor *string, limit int) ([]domain.ChatMessage, *string, error) {
	var raw [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", roomID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	var messages []domain.ChatMessage
	for _, b := range raw {
		var dm diskMessage
		if err = json.Unmarshal(b, &dm); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		messages = append(messages, toChatMessage(dm))
	}
	return messages, &lastKey, nil
}

func fromChatMessage(msg domain.ChatMessage) diskMessage {
	return diskMessage{
		ID:          msg.ID,
		Room:        msg.Room,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		MessageType: msg.MessageType,
		At:          msg.CreatedAt.UnixNano(),
	}
}

func toChatMessage(dm diskMessage) domain.ChatMessage {
	return domain.ChatMessage{
		ID:          dm.ID,
		Room:        dm.Room,
		SenderID:    dm.SenderID,
		Content:     dm.Content,
		MessageType: dm.MessageType,
		CreatedAt:   time.Unix(0, dm.At).UTC(),
	}
}
