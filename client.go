package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection plus its session context: which room
// it belongs to and under what identity. The session is written only by the
// owning room's handlers and read back on disconnect.
type Client struct {
	conn *websocket.Conn
	send chan any
	id   string

	mu        sync.Mutex
	closed    bool
	room      *Room
	name      string
	symbol    string
	spectator bool
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

func (c *Client) setSession(room *Room, name, symbol string, spectator bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.room = room
	c.name = name
	c.symbol = symbol
	c.spectator = spectator
}

func (c *Client) currentRoom() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.room
}

func (c *Client) sessionName() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.name
}

func (c *Client) sessionIdentity() (name string, spectator bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.name, c.spectator
}

// trySend buffers a message without blocking, reporting whether it fit. A
// false return means the client is closed or too slow to keep up.
func (c *Client) trySend(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel exactly once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func serveWS(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: websocket upgrade failed for %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
			id:   newConnID(),
		}

		logf(cfg, "SERVE: Websocket session %s for %s", client.id[:8], realIP(r))

		go client.writePump()
		client.readPump(cfg, reg)
	}
}

func (c *Client) readPump(cfg *Config, reg *Registry) {
	defer func() {
		if room := c.currentRoom(); room != nil {
			room.postLeave(c)
		} else {
			c.closeSend()
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		c.route(cfg, reg, msg)
	}
}

// route resolves the target room for an inbound event, by the code carried
// in the event or the one cached on the session, and posts it to that
// room's dispatcher.
func (c *Client) route(cfg *Config, reg *Registry, msg ClientMessage) {
	switch msg.Type {
	case "create-room":
		if c.currentRoom() != nil {
			c.trySend(RoomErrorMessage{
				Type:    "room-error",
				Message: "already in a room",
			})
			return
		}
		reg.CreateRoom(cfg, c, msg.PlayerName)

	case "join-room", "reconnect-to-room":
		if c.currentRoom() != nil {
			c.trySend(RoomErrorMessage{
				Type:    "room-error",
				Message: "already in a room",
			})
			return
		}
		room, ok := reg.Get(msg.RoomID)
		if !ok || !room.post(c, msg) {
			c.trySend(RoomErrorMessage{
				Type:    "room-error",
				Message: errRoomNotFound.Error(),
			})
		}

	case "make-move":
		room, ok := reg.Get(msg.RoomID)
		if !ok || !room.post(c, msg) {
			c.trySend(MoveErrorMessage{
				Type:    "move-error",
				Message: errGameNotActive.Error(),
			})
		}

	case "reset-game":
		// A reset for an unknown room is a silent no-op.
		if room, ok := reg.Get(msg.RoomID); ok {
			room.post(c, msg)
		}

	case "typing", "chat-message":
		if room := c.currentRoom(); room != nil {
			room.post(c, msg)
		}

	default:
		// ignore unknown types
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
