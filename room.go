// Tic-tac-toe session rooms
//
// Each room is an isolated game session identified by a short uppercase
// code. Clients create or join rooms over a single websocket endpoint;
// every inbound event carries the room code (or resolves it from the
// connection's session) and is routed through the room's dispatcher.
//
// Features:
// - Two seats per room, assigned in join order: first "X", second "O"
// - The second seat filling is the sole trigger that starts a game
// - Third and later joiners become spectators (unbounded, chat access only)
// - Move validation: active game, correct turn, free cell
// - Win/draw detection with cumulative per-room scores across resets
// - Disconnected players keep their seat for a grace window and may
//   reconnect under the same display name to reclaim their symbol
// - Rooms are deleted the instant both seats and spectators are gone
// - Random 6-char uppercase room codes via crypto/rand, with server-side
//   collision check

package main

import (
	"sync"
	"time"
)

const (
	symbolX = "X"
	symbolO = "O"

	maxSeats = 2
)

// Player holds one of the two seats. The display name and symbol are fixed
// for the seat's lifetime; the connection id is rebound on reconnection.
// LeaveSeq counts disconnects so that a stale grace timer, armed before a
// reconnect, cannot reclaim the seat after a later disconnect.
type Player struct {
	ConnID    string
	Name      string
	Symbol    string
	Connected bool
	LeaveSeq  int
}

type Spectator struct {
	ConnID string
	Name   string
}

type command struct {
	client *Client
	msg    ClientMessage
}

type Room struct {
	code string
	reg  *Registry

	clients    map[*Client]bool
	players    []*Player
	spectators []*Spectator

	board         [9]string
	currentPlayer string
	gameActive    bool
	scores        Scores
	gamesPlayed   int

	commands chan command
	leaves   chan *Client
	done     chan struct{}

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
}

func newRoom(code string, reg *Registry) *Room {
	now := time.Now()
	return &Room{
		code:          code,
		reg:           reg,
		clients:       make(map[*Client]bool),
		currentPlayer: symbolX,
		commands:      make(chan command),
		leaves:        make(chan *Client),
		done:          make(chan struct{}),
		createdAt:     now,
		lastActive:    now,
	}
}

// run serializes all event handling for this room: one command is handled to
// completion before the next touches the room's state.
func (r *Room) run(cfg *Config) {
	for {
		select {
		case cmd := <-r.commands:
			r.dispatch(cfg, cmd.client, cmd.msg)
		case c := <-r.leaves:
			r.handleLeave(cfg, c)
		case <-r.done:
			return
		}
	}
}

// post hands an event to the room's dispatcher, reporting false if the room
// has already been closed.
func (r *Room) post(c *Client, msg ClientMessage) bool {
	select {
	case r.commands <- command{client: c, msg: msg}:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) postLeave(c *Client) bool {
	select {
	case r.leaves <- c:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) dispatch(cfg *Config, c *Client, msg ClientMessage) {
	switch msg.Type {
	case "join-room":
		r.handleJoin(cfg, c, msg)
	case "make-move":
		r.handleMove(cfg, c, msg)
	case "reset-game":
		r.handleReset(cfg, c)
	case "reconnect-to-room":
		r.handleReconnect(cfg, c, msg)
	case "typing":
		r.handleTyping(c, msg)
	case "chat-message":
		r.handleChat(cfg, c, msg)
	}
}

// seatCreator seats the first player before the room's dispatcher starts.
func (r *Room) seatCreator(c *Client, name string) RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.players = append(r.players, &Player{
		ConnID:    c.id,
		Name:      name,
		Symbol:    symbolX,
		Connected: true,
	})
	r.clients[c] = true
	c.setSession(r, name, symbolX, false)

	return r.stateLocked()
}

// handleJoin seats the caller as "O" if a seat is free, or admits them as a
// spectator otherwise. Spectator admission is a success, not an error.
func (r *Room) handleJoin(cfg *Config, c *Client, msg ClientMessage) {
	if msg.PlayerName == "" {
		c.trySend(RoomErrorMessage{
			Type:    "room-error",
			Message: "player name is required",
		})
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if len(r.players) >= maxSeats {
		r.spectators = append(r.spectators, &Spectator{
			ConnID: c.id,
			Name:   msg.PlayerName,
		})
		r.clients[c] = true
		c.setSession(r, msg.PlayerName, "", true)

		r.sendLocked(c, JoinedAsSpectatorMessage{
			Type: "joined-as-spectator",
			Room: r.stateLocked(),
		})
		r.broadcastExceptLocked(c, SpectatorJoinedMessage{
			Type:       "spectator-joined",
			PlayerName: msg.PlayerName,
		})

		logf(cfg, "ROOMS: Spectator %q joined %s", msg.PlayerName, r.code)
		return
	}

	// The free seat's symbol is the complement of whatever the surviving
	// seat holds. Seat count alone is not enough: a reclaimed "X" seat can
	// leave a lone "O" behind.
	symbol := symbolX
	if len(r.players) == 1 && r.players[0].Symbol == symbolX {
		symbol = symbolO
	}

	player := &Player{
		ConnID:    c.id,
		Name:      msg.PlayerName,
		Symbol:    symbol,
		Connected: true,
	}
	r.players = append(r.players, player)
	r.clients[c] = true
	c.setSession(r, player.Name, player.Symbol, false)

	logf(cfg, "ROOMS: Player %q joined %s as %s", player.Name, r.code, player.Symbol)

	if len(r.players) == maxSeats {
		r.gameActive = true
		r.broadcastLocked(GameReadyMessage{
			Type:    "game-ready",
			Room:    r.stateLocked(),
			Message: player.Name + " joined, game on",
		})
	}
}

// handleMove validates and applies a move, then evaluates the terminal
// state. Failed moves leave the room untouched and are reported to the
// mover only.
func (r *Room) handleMove(cfg *Config, c *Client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if !r.gameActive {
		r.sendLocked(c, MoveErrorMessage{
			Type:    "move-error",
			Message: errGameNotActive.Error(),
		})
		return
	}

	player := r.playerByConnLocked(c.id)
	if player == nil || player.Symbol != r.currentPlayer {
		r.sendLocked(c, MoveErrorMessage{
			Type:    "move-error",
			Message: errNotYourTurn.Error(),
		})
		return
	}

	if msg.CellIndex == nil || *msg.CellIndex < 0 || *msg.CellIndex > 8 {
		r.sendLocked(c, MoveErrorMessage{
			Type:    "move-error",
			Message: "cell index must be between 0 and 8",
		})
		return
	}
	cell := *msg.CellIndex

	if r.board[cell] != "" {
		r.sendLocked(c, MoveErrorMessage{
			Type:    "move-error",
			Message: errCellOccupied.Error(),
		})
		return
	}

	r.board[cell] = player.Symbol

	if win, ok := checkWinner(r.board); ok {
		r.gameActive = false
		if win.Symbol == symbolX {
			r.scores.X++
		} else {
			r.scores.O++
		}
		r.gamesPlayed++

		r.broadcastLocked(GameWonMessage{
			Type:         "game-won",
			Winner:       win.Symbol,
			WinnerName:   player.Name,
			WinningCells: win.Line,
			Room:         r.stateLocked(),
		})
		logf(cfg, "GAMES: %q (%s) won %s on line %v", player.Name, player.Symbol, r.code, win.Line)
	} else if boardFull(r.board) {
		r.gameActive = false
		r.scores.Draws++
		r.gamesPlayed++

		r.broadcastLocked(GameDrawMessage{
			Type: "game-draw",
			Room: r.stateLocked(),
		})
		logf(cfg, "GAMES: %s ended in a draw", r.code)
	} else {
		if r.currentPlayer == symbolX {
			r.currentPlayer = symbolO
		} else {
			r.currentPlayer = symbolX
		}
	}

	r.broadcastLocked(MoveMadeMessage{
		Type:       "move-made",
		CellIndex:  cell,
		Symbol:     player.Symbol,
		PlayerName: player.Name,
		Room:       r.stateLocked(),
	})
}

// handleReset clears the board for a rematch. Scores and gamesPlayed are
// cumulative for the room's lifetime and survive resets.
func (r *Room) handleReset(cfg *Config, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	r.board = [9]string{}
	r.currentPlayer = symbolX
	r.gameActive = len(r.players) == maxSeats && r.allSeatedConnectedLocked()

	r.broadcastLocked(GameResetMessage{
		Type: "game-reset",
		Room: r.stateLocked(),
	})

	logf(cfg, "GAMES: %s reset", r.code)
}

// handleReconnect rebinds an existing seat, found by display name, to the
// caller's new connection. An unknown name is a silent no-op: no new seat is
// ever created here.
func (r *Room) handleReconnect(cfg *Config, c *Client, msg ClientMessage) {
	if msg.PlayerName == "" {
		c.trySend(RoomErrorMessage{
			Type:    "room-error",
			Message: "player name is required",
		})
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	var player *Player
	for _, p := range r.players {
		if p.Name == msg.PlayerName {
			player = p
			break
		}
	}
	if player == nil {
		return
	}

	player.ConnID = c.id
	player.Connected = true
	r.clients[c] = true
	c.setSession(r, player.Name, player.Symbol, false)

	// Resume play once the full table is back, unless the board already
	// reached a terminal state (then a reset is needed anyway).
	if len(r.players) == maxSeats && r.allSeatedConnectedLocked() && !r.terminalLocked() {
		r.gameActive = true
	}

	r.sendLocked(c, ReconnectedMessage{
		Type:         "reconnected",
		Room:         r.stateLocked(),
		PlayerSymbol: player.Symbol,
	})
	r.broadcastExceptLocked(c, PlayerReconnectedMessage{
		Type:       "player-reconnected",
		PlayerName: player.Name,
	})

	logf(cfg, "ROOMS: Player %q (%s) reconnected to %s", player.Name, player.Symbol, r.code)
}

func (r *Room) handleTyping(c *Client, msg ClientMessage) {
	if msg.IsTyping == nil {
		c.trySend(RoomErrorMessage{
			Type:    "room-error",
			Message: "isTyping is required",
		})
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcastExceptLocked(c, PlayerTypingMessage{
		Type:       "player-typing",
		PlayerName: c.sessionName(),
		IsTyping:   *msg.IsTyping,
	})
}

func (r *Room) handleChat(cfg *Config, c *Client, msg ClientMessage) {
	if msg.Message == "" {
		c.trySend(RoomErrorMessage{
			Type:    "room-error",
			Message: "message is required",
		})
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	name, spectator := c.sessionIdentity()

	r.broadcastLocked(ChatMessage{
		Type:        "chat-message",
		PlayerName:  name,
		Message:     msg.Message,
		Timestamp:   time.Now().UnixMilli(),
		IsSpectator: spectator,
	})

	logf(cfg, "CHAT: %q in %s", name, r.code)
}

// handleLeave processes a closed connection. Spectators are removed
// outright; players keep their seat (marked disconnected) for the
// reconnect-grace window before it is reclaimed.
func (r *Room) handleLeave(cfg *Config, c *Client) {
	r.mu.Lock()

	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		c.closeSend()
	}

	r.lastActive = time.Now()

	for i, s := range r.spectators {
		if s.ConnID != c.id {
			continue
		}

		r.spectators = append(r.spectators[:i], r.spectators[i+1:]...)
		r.broadcastLocked(SpectatorLeftMessage{
			Type:       "spectator-left",
			PlayerName: s.Name,
		})
		logf(cfg, "ROOMS: Spectator %q left %s", s.Name, r.code)

		empty := len(r.players) == 0 && len(r.spectators) == 0
		r.mu.Unlock()

		if empty {
			r.reg.remove(cfg, r.code)
		}
		return
	}

	player := r.playerByConnLocked(c.id)
	if player == nil {
		r.mu.Unlock()
		return
	}

	player.Connected = false
	player.LeaveSeq++
	leaveSeq := player.LeaveSeq
	wasActive := r.gameActive
	r.gameActive = false

	r.broadcastLocked(PlayerDisconnectedMessage{
		Type:       "player-disconnected",
		PlayerName: player.Name,
		Symbol:     player.Symbol,
	})
	if wasActive {
		r.broadcastLocked(GamePausedMessage{
			Type:    "game-paused",
			Message: player.Name + " disconnected, game paused",
		})
	}

	logf(cfg, "ROOMS: Player %q (%s) disconnected from %s", player.Name, player.Symbol, r.code)
	r.mu.Unlock()

	go r.scheduleSeatRemoval(cfg, player.Name, leaveSeq, cfg.reconnectGrace)
}

// scheduleSeatRemoval waits for d, and if the named player has not
// reconnected since the disconnect that armed this timer, reclaims their
// seat and deletes the room once both seats and spectators are gone. A
// reconnect-then-disconnect bumps the seat's LeaveSeq, so this timer bails
// and the newer one grants a full grace window.
func (r *Room) scheduleSeatRemoval(cfg *Config, name string, leaveSeq int, d time.Duration) {
	time.Sleep(d)

	r.mu.Lock()

	idx := -1
	for i, p := range r.players {
		if p.Name == name && !p.Connected && p.LeaveSeq == leaveSeq {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.mu.Unlock()
		return
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	logf(cfg, "ROOMS: Seat %q reclaimed in %s", name, r.code)

	empty := len(r.players) == 0 && len(r.spectators) == 0
	r.mu.Unlock()

	if empty {
		r.reg.remove(cfg, r.code)
	}
}

// close disconnects every remaining client and stops the dispatcher. Called
// by the registry only, after the room is unreachable by code.
func (r *Room) close() {
	close(r.done)

	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.clients {
		c.closeSend()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(r.clients, c)
	}
}

func (r *Room) playerByConnLocked(connID string) *Player {
	for _, p := range r.players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) allSeatedConnectedLocked() bool {
	for _, p := range r.players {
		if !p.Connected {
			return false
		}
	}
	return true
}

func (r *Room) terminalLocked() bool {
	if _, won := checkWinner(r.board); won {
		return true
	}
	return boardFull(r.board)
}

func (r *Room) stateLocked() RoomState {
	players := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerState{
			Name:      p.Name,
			Symbol:    p.Symbol,
			Connected: p.Connected,
		})
	}

	spectators := make([]string, 0, len(r.spectators))
	for _, s := range r.spectators {
		spectators = append(spectators, s.Name)
	}

	return RoomState{
		RoomID:        r.code,
		Players:       players,
		Board:         r.board,
		CurrentPlayer: r.currentPlayer,
		GameActive:    r.gameActive,
		Scores:        r.scores,
		GamesPlayed:   r.gamesPlayed,
		Spectators:    spectators,
	}
}

// sendLocked delivers to a single occupant, dropping the client if its
// buffer is full. Assumes r.mu is held.
func (r *Room) sendLocked(c *Client, msg any) {
	if !c.trySend(msg) {
		c.closeSend()
		delete(r.clients, c)
	}
}

func (r *Room) broadcastLocked(msg any) {
	for c := range r.clients {
		r.sendLocked(c, msg)
	}
}

func (r *Room) broadcastExceptLocked(sender *Client, msg any) {
	for c := range r.clients {
		if c == sender {
			continue
		}
		r.sendLocked(c, msg)
	}
}
