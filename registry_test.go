package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCodesAreWellFormedAndUnique(t *testing.T) {
	cfg := newTestConfig()
	reg := newRegistry(cfg)

	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		c := newTestClient("conn")
		reg.CreateRoom(cfg, c, "Player")

		created, ok := recv(t, c).(RoomCreatedMessage)
		require.True(t, ok)

		assert.Regexp(t, "^[A-Z0-9]{6}$", created.RoomID)
		assert.False(t, seen[created.RoomID], "duplicate room code %s", created.RoomID)
		seen[created.RoomID] = true
	}

	assert.Equal(t, 20, reg.RoomCount())
}

func TestGetNormalizesCase(t *testing.T) {
	cfg := newTestConfig()
	reg := newRegistry(cfg)
	c := newTestClient("conn")

	room := createTestRoom(t, cfg, reg, c, "Alice")

	got, ok := reg.Get(strings.ToLower(room.code))
	require.True(t, ok, "lowercase codes must resolve")
	assert.Same(t, room, got)

	_, ok = reg.Get("NOSUCH")
	assert.False(t, ok)
}

func TestRemoveIsIdempotent(t *testing.T) {
	cfg := newTestConfig()
	reg := newRegistry(cfg)
	c := newTestClient("conn")

	room := createTestRoom(t, cfg, reg, c, "Alice")

	reg.remove(cfg, room.code)
	assert.Zero(t, reg.RoomCount())

	// A second removal of the same code must not panic or block.
	reg.remove(cfg, room.code)
	assert.Zero(t, reg.RoomCount())
}

func TestRemoveClosesRoomDispatcher(t *testing.T) {
	cfg := newTestConfig()
	reg := newRegistry(cfg)
	c := newTestClient("conn")

	room := createTestRoom(t, cfg, reg, c, "Alice")
	reg.remove(cfg, room.code)

	assert.False(t, room.post(c, ClientMessage{Type: "make-move", CellIndex: intPtr(0)}),
		"a closed room must refuse further events")
	assert.False(t, room.postLeave(c))
}
