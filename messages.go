package main

// Messages coming from clients
type ClientMessage struct {
	Type       string `json:"type"`                 // "create-room", "join-room", "make-move", "reset-game", "reconnect-to-room", "typing", "chat-message"
	PlayerName string `json:"playerName,omitempty"` // create-room / join-room / reconnect-to-room
	RoomID     string `json:"roomId,omitempty"`     // join-room / make-move / reset-game / reconnect-to-room
	CellIndex  *int   `json:"cellIndex,omitempty"`  // make-move; pointer so a missing index is distinguishable from cell 0
	IsTyping   *bool  `json:"isTyping,omitempty"`   // typing
	Message    string `json:"message,omitempty"`    // chat-message
}

// Scores accumulate across resets for the lifetime of a room.
type Scores struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

type PlayerState struct {
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Connected bool   `json:"connected"`
}

// RoomState is the snapshot carried by every room-mutating broadcast, so all
// connected parties converge on the same view after each event.
type RoomState struct {
	RoomID        string        `json:"roomId"`
	Players       []PlayerState `json:"players"`
	Board         [9]string     `json:"board"`
	CurrentPlayer string        `json:"currentPlayer"`
	GameActive    bool          `json:"gameActive"`
	Scores        Scores        `json:"scores"`
	GamesPlayed   int           `json:"gamesPlayed"`
	Spectators    []string      `json:"spectators"`
}

// Sent to the creator once their room is allocated.
type RoomCreatedMessage struct {
	Type         string    `json:"type"` // "room-created"
	RoomID       string    `json:"roomId"`
	PlayerSymbol string    `json:"playerSymbol"`
	PlayerName   string    `json:"playerName"`
	Room         RoomState `json:"room"`
}

// Sent to a single client when a room-level request fails.
type RoomErrorMessage struct {
	Type    string `json:"type"` // "room-error"
	Message string `json:"message"`
}

type JoinedAsSpectatorMessage struct {
	Type string    `json:"type"` // "joined-as-spectator"
	Room RoomState `json:"room"`
}

type SpectatorJoinedMessage struct {
	Type       string `json:"type"` // "spectator-joined"
	PlayerName string `json:"playerName"`
}

// Broadcast when the second seat fills; this is the sole game-start trigger.
type GameReadyMessage struct {
	Type    string    `json:"type"` // "game-ready"
	Room    RoomState `json:"room"`
	Message string    `json:"message"`
}

// Sent to a single client when a move is rejected.
type MoveErrorMessage struct {
	Type    string `json:"type"` // "move-error"
	Message string `json:"message"`
}

type GameWonMessage struct {
	Type         string    `json:"type"` // "game-won"
	Winner       string    `json:"winner"`
	WinnerName   string    `json:"winnerName"`
	WinningCells [3]int    `json:"winningCells"`
	Room         RoomState `json:"room"`
}

type GameDrawMessage struct {
	Type string    `json:"type"` // "game-draw"
	Room RoomState `json:"room"`
}

// Broadcast after every accepted move, including terminal ones.
type MoveMadeMessage struct {
	Type       string    `json:"type"` // "move-made"
	CellIndex  int       `json:"cellIndex"`
	Symbol     string    `json:"symbol"`
	PlayerName string    `json:"playerName"`
	Room       RoomState `json:"room"`
}

type GameResetMessage struct {
	Type string    `json:"type"` // "game-reset"
	Room RoomState `json:"room"`
}

type ReconnectedMessage struct {
	Type         string    `json:"type"` // "reconnected"
	Room         RoomState `json:"room"`
	PlayerSymbol string    `json:"playerSymbol"`
}

type PlayerReconnectedMessage struct {
	Type       string `json:"type"` // "player-reconnected"
	PlayerName string `json:"playerName"`
}

type PlayerTypingMessage struct {
	Type       string `json:"type"` // "player-typing"
	PlayerName string `json:"playerName"`
	IsTyping   bool   `json:"isTyping"`
}

type ChatMessage struct {
	Type        string `json:"type"` // "chat-message"
	PlayerName  string `json:"playerName"`
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"` // unix milliseconds
	IsSpectator bool   `json:"isSpectator"`
}

type SpectatorLeftMessage struct {
	Type       string `json:"type"` // "spectator-left"
	PlayerName string `json:"playerName"`
}

type PlayerDisconnectedMessage struct {
	Type       string `json:"type"` // "player-disconnected"
	PlayerName string `json:"playerName"`
	Symbol     string `json:"symbol"`
}

type GamePausedMessage struct {
	Type    string `json:"type"` // "game-paused"
	Message string `json:"message"`
}
