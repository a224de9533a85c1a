package repositories

import (
	"encoding/json"
	"fmt"

	"community-live/domain"
	"community-live/errors"

	"github.com/dgraph-io/badger/v4"
)

// ProfileDirectory resolves the sender block attached to broadcast messages.
type ProfileDirectory struct {
	db *badger.DB
}

func NewProfileDirectory(db *badger.DB) ProfileDirectory {
	return ProfileDirectory{db: db}
}

func (p ProfileDirectory) Put(profile domain.Profile) error {
	bytes, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("profile:"+profile.ID), bytes)
	})
}

func (p ProfileDirectory) Get(userID string) (domain.Profile, error) {
	var profile domain.Profile
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("profile:" + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: user %s", errors.ErrNotFound, userID)
	}
	return profile, nil
}
