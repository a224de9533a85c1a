package repositories

import (
	"encoding/json"
	"fmt"

	"community-live/domain"
	"community-live/errors"

	"github.com/dgraph-io/badger/v4"
)

// RoomDirectory is the room collaborator consumed by the dispatcher. The
// live subsystem never creates rooms on its own; Put exists for the platform
// backend, seeds and tests.
type RoomDirectory struct {
	db *badger.DB
}

func NewRoomDirectory(db *badger.DB) RoomDirectory {
	return RoomDirectory{db: db}
}

func (r RoomDirectory) Put(room domain.Room) error {
	bytes, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("room:"+room.ID), bytes)
	})
}

func (r RoomDirectory) Get(roomID string) (domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("room:" + roomID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &room)
		})
	})
	if err != nil {
		return domain.Room{}, fmt.Errorf("%w: room %s", errors.ErrNotFound, roomID)
	}
	return room, nil
}

// CheckJoin is the visibility/capacity gate. The dispatcher trusts this
// verdict and does not re-derive it.
func (r RoomDirectory) CheckJoin(roomID, userID string, currentMembers int) error {
	room, err := r.Get(roomID)
	if err != nil {
		return err
	}
	if !room.IsPublic {
		// Private-room invitations are managed by the platform backend.
		// A private room is invisible to the live subsystem's joins.
		return fmt.Errorf("%w: room %s is not open to %s", errors.ErrNotFound, roomID, userID)
	}
	if room.MaxMembers > 0 && currentMembers >= room.MaxMembers {
		return fmt.Errorf("%w: room %s", errors.ErrRoomFull, roomID)
	}
	return nil
}
