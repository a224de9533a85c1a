package repositories

import (
	"testing"

	"community-live/domain"
	"community-live/errors"

	"github.com/stretchr/testify/require"
)

func Test_RoomDirectory_Get_Unknown(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomDirectory(openTestDB(t))

	_, err := rooms.Get("missing")

	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_RoomDirectory_CheckJoin(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomDirectory(openTestDB(t))
	req.NoError(rooms.Put(domain.Room{ID: "42", Name: "general", IsPublic: true, MaxMembers: 2}))
	req.NoError(rooms.Put(domain.Room{ID: "7", Name: "staff", IsPublic: false}))
	req.NoError(rooms.Put(domain.Room{ID: "9", Name: "open", IsPublic: true}))

	// A public room below capacity accepts the join
	req.NoError(rooms.CheckJoin("42", "user-1", 1))

	// At capacity the join is refused
	req.ErrorIs(rooms.CheckJoin("42", "user-1", 2), errors.ErrRoomFull)

	// A private room looks like it does not exist
	req.ErrorIs(rooms.CheckJoin("7", "user-1", 0), errors.ErrNotFound)

	// MaxMembers zero means unbounded
	req.NoError(rooms.CheckJoin("9", "user-1", 10_000))

	// Unknown rooms cannot be joined
	req.ErrorIs(rooms.CheckJoin("missing", "user-1", 0), errors.ErrNotFound)
}

func Test_ProfileDirectory_RoundTrip(t *testing.T) {
	req := require.New(t)
	profiles := NewProfileDirectory(openTestDB(t))

	profile := domain.Profile{ID: "user-1", DisplayName: "Alice", Avatar: "https://cdn/avatar.png"}
	req.NoError(profiles.Put(profile))

	got, err := profiles.Get("user-1")
	req.NoError(err)
	req.Equal(profile, got)

	_, err = profiles.Get("user-2")
	req.ErrorIs(err, errors.ErrNotFound)
}
