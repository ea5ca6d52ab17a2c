package server

import (
	"time"

	"bridge-server/internal/bridge"
	"bridge-server/internal/game"
)

// ============================================================================
// RESULT (answer to every request)
// ============================================================================
// tygo:generate
type Result struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ============================================================================
// CREATE GAME (create_game)
// ============================================================================
// tygo:generate
type CreateGameRequest struct {
	Username string `json:"username"`
}

// ============================================================================
// JOIN GAME (join_game)
// ============================================================================
// tygo:generate
type JoinGameRequest struct {
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
}

// tygo:generate
type JoinGameResponse struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

// ============================================================================
// RECONNECT (reconnect)
// ============================================================================
// tygo:generate
type ReconnectRequest struct {
	PlayerID string `json:"playerId"`
}

// ============================================================================
// MOVES (rearrange, toggle_ready, submit_wash, submit_bet, submit_partner,
// play_card, move_on)
// ============================================================================
// tygo:generate
type MoveRequest struct {
	Direction int         `json:"direction,omitempty"`
	Accept    bool        `json:"accept,omitempty"`
	Bet       *bridge.Bet `json:"bet,omitempty"`
	Card      *game.Card  `json:"card,omitempty"`
}

// ============================================================================
// ROOM SUMMARY (GET /rooms/{code})
// ============================================================================
// tygo:generate
type RoomSummary struct {
	RoomCode   string     `json:"roomCode"`
	Phase      string     `json:"phase"`
	Players    []RoomSeat `json:"players"`
	CurrentBet string     `json:"currentBet"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// tygo:generate
type RoomSeat struct {
	Seat      int    `json:"seat"`
	Name      string `json:"name"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
}
