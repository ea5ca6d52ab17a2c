package bridge

import "bridge-server/internal/game"

type MoveType string

const (
	// Lobby moves
	MoveRearrange   MoveType = "rearrange"
	MoveToggleReady MoveType = "toggle_ready"
	MoveLeave       MoveType = "leave_game"

	// Deal moves
	MoveWash    MoveType = "submit_wash"
	MoveBet     MoveType = "submit_bet"
	MovePartner MoveType = "submit_partner"
	MovePlay    MoveType = "play_card"
	MoveOn      MoveType = "move_on"
)

// Move is one player action. Only the fields its Type uses are read.
type Move struct {
	Type      MoveType   `json:"type"`
	PlayerID  string     `json:"-"`
	Direction int        `json:"direction,omitempty"`
	Accept    bool       `json:"accept,omitempty"`
	Bet       *Bet       `json:"bet,omitempty"`
	Card      *game.Card `json:"card,omitempty"`
}

func (g *Game) ExecuteMove(m Move) error {
	switch m.Type {
	case MoveRearrange:
		return g.MovePlayer(m.PlayerID, m.Direction)
	case MoveToggleReady:
		return g.ToggleReady(m.PlayerID)
	case MoveLeave:
		return g.RemovePlayer(m.PlayerID)
	case MoveWash:
		return g.SubmitWash(m.PlayerID, m.Accept)
	case MoveBet:
		return g.SubmitBet(m.PlayerID, m.Bet)
	case MovePartner:
		if m.Card == nil {
			return ErrInvalidCard
		}
		return g.SubmitPartner(m.PlayerID, *m.Card)
	case MovePlay:
		if m.Card == nil {
			return ErrInvalidCard
		}
		return g.PlayCard(m.PlayerID, *m.Card)
	case MoveOn:
		return g.SubmitMoveOn(m.PlayerID)
	}
	return ErrUnknownMove
}
