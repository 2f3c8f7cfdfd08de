package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *Config) (*httptest.Server, *Registry) {
	t.Helper()

	reg := newRegistry(cfg)
	mux := httprouter.New()
	errs := make(chan error, 64)
	registerRoutes(cfg, reg, mux, errs)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, reg
}

func TestServeHomePage(t *testing.T) {
	srv, _ := newTestServer(t, newTestConfig())

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestServeVersion(t *testing.T) {
	srv, _ := newTestServer(t, newTestConfig())

	resp, err := http.Get(srv.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), releaseVersion)
}

func TestServeHealthCheck(t *testing.T) {
	cfg := newTestConfig()
	srv, reg := newTestServer(t, cfg)

	createTestRoom(t, cfg, reg, newTestClient("conn"), "Alice")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var health struct {
		Status      string `json:"status"`
		ActiveRooms int    `json:"activeRooms"`
		Timestamp   int64  `json:"timestamp"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))

	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.ActiveRooms)
	assert.Positive(t, health.Timestamp)
}

func TestServeRoomQR(t *testing.T) {
	cfg := newTestConfig()
	srv, reg := newTestServer(t, cfg)

	resp, err := http.Get(srv.URL + "/rooms/NOSUCH/qr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	room := createTestRoom(t, cfg, reg, newTestClient("conn"), "Alice")

	resp, err = http.Get(srv.URL + "/rooms/" + room.code + "/qr")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func wsDial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func wsRead(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

// wsReadType skips interleaved broadcasts until a message of the wanted type
// arrives.
func wsReadType(t *testing.T, conn *websocket.Conn, wanted string) map[string]any {
	t.Helper()

	for i := 0; i < 10; i++ {
		msg := wsRead(t, conn)
		if msg["type"] == wanted {
			return msg
		}
	}

	t.Fatalf("no %q message arrived", wanted)
	return nil
}

func TestWebSocketGameFlow(t *testing.T) {
	cfg := newTestConfig()
	srv, _ := newTestServer(t, cfg)

	alice := wsDial(t, srv)
	bob := wsDial(t, srv)

	require.NoError(t, alice.WriteJSON(map[string]any{
		"type":       "create-room",
		"playerName": "Alice",
	}))

	created := wsReadType(t, alice, "room-created")
	roomID, _ := created["roomId"].(string)
	require.NotEmpty(t, roomID)
	assert.Equal(t, symbolX, created["playerSymbol"])

	require.NoError(t, bob.WriteJSON(map[string]any{
		"type":       "join-room",
		"roomId":     roomID,
		"playerName": "Bob",
	}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		ready := wsReadType(t, conn, "game-ready")
		room, _ := ready["room"].(map[string]any)
		require.NotNil(t, room)
		assert.Equal(t, true, room["gameActive"])
		assert.Equal(t, symbolX, room["currentPlayer"])
	}

	require.NoError(t, alice.WriteJSON(map[string]any{
		"type":      "make-move",
		"roomId":    roomID,
		"cellIndex": 4,
	}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		made := wsReadType(t, conn, "move-made")
		assert.Equal(t, float64(4), made["cellIndex"])
		assert.Equal(t, symbolX, made["symbol"])

		room, _ := made["room"].(map[string]any)
		require.NotNil(t, room)
		assert.Equal(t, symbolO, room["currentPlayer"])
	}
}

func TestWebSocketUnknownRoom(t *testing.T) {
	cfg := newTestConfig()
	srv, _ := newTestServer(t, cfg)

	conn := wsDial(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":       "join-room",
		"roomId":     "NOSUCH",
		"playerName": "Bob",
	}))

	msg := wsRead(t, conn)
	assert.Equal(t, "room-error", msg["type"])
	assert.Equal(t, errRoomNotFound.Error(), msg["message"])
}

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "100 B", humanReadableSize(100))
	assert.Equal(t, "1.0 kB", humanReadableSize(1000))
	assert.Equal(t, "1.5 MB", humanReadableSize(1500000))
}
