package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// Registry holds the process-wide set of live rooms, keyed by room code.
// It owns creation, lookup, and deletion; a room's internal state is owned
// by the room itself.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func newRegistry(cfg *Config) *Registry {
	reg := &Registry{
		rooms: make(map[string]*Room),
	}
	if cfg.sessionTimeout > 0 {
		go reg.reaperLoop(cfg)
	}
	return reg
}

// CreateRoom allocates a room, seats the creator as "X", and starts the
// room's dispatcher. The game stays inactive until a second player joins.
func (reg *Registry) CreateRoom(cfg *Config, c *Client, name string) {
	if name == "" {
		c.trySend(RoomErrorMessage{
			Type:    "room-error",
			Message: "player name is required",
		})
		return
	}

	reg.mu.Lock()
	code := reg.newRoomCodeLocked()
	room := newRoom(code, reg)
	reg.rooms[code] = room
	reg.mu.Unlock()

	state := room.seatCreator(c, name)
	go room.run(cfg)

	c.trySend(RoomCreatedMessage{
		Type:         "room-created",
		RoomID:       code,
		PlayerSymbol: symbolX,
		PlayerName:   name,
		Room:         state,
	})

	logf(cfg, "ROOMS: %q created room %s", name, code)
}

// Get looks up a live room, normalizing the code to uppercase so codes stay
// human-typeable.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[strings.ToUpper(code)]
	return room, ok
}

func (reg *Registry) RoomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.rooms)
}

// remove deletes a room from the registry and closes it. Safe to call more
// than once for the same code.
func (reg *Registry) remove(cfg *Config, code string) {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	if ok {
		delete(reg.rooms, code)
	}
	reg.mu.Unlock()

	if ok {
		room.close()
		logf(cfg, "ROOMS: Removed room %s", code)
	}
}

// newRoomCodeLocked generates a crypto-random room code and ensures it
// doesn't collide with any currently-live room. Caller must hold reg.mu.
func (reg *Registry) newRoomCodeLocked() string {
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomCodeLength)
		for i := range out {
			out[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
		}
		code := string(out)

		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}

// reaperLoop periodically removes rooms that have been idle longer than the
// configured session timeout, covering rooms abandoned with seats intact.
func (reg *Registry) reaperLoop(cfg *Config) {
	ticker := time.NewTicker(cfg.sessionTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-cfg.sessionTimeout)

		reg.mu.Lock()
		var stale []*Room
		for code, room := range reg.rooms {
			room.mu.RLock()
			last := room.lastActive
			room.mu.RUnlock()

			if last.Before(cutoff) {
				delete(reg.rooms, code)
				stale = append(stale, room)
			}
		}
		reg.mu.Unlock()

		for _, room := range stale {
			room.close()
			logf(cfg, "ROOMS: Reaped idle room %s", room.code)
		}
	}
}
