package bridge

import (
	"slices"

	"bridge-server/internal/game"
)

// View is one player's picture of the table. Other players' cards are
// reduced to counts.
type View struct {
	RoomCode        string            `json:"roomCode"`
	Phase           Phase             `json:"phase"`
	CurrentBet      Bet               `json:"currentBet"`
	BetHistory      []*Bet            `json:"betHistory"`
	ActiveSeat      int               `json:"activeSeat"`
	TrickLeadSeat   int               `json:"trickLeadSeat"`
	TrickCounts     [Seats]int        `json:"trickCounts"`
	CurrentTrick    [Seats]*game.Card `json:"currentTrick"`
	AckFlags        [Seats]bool       `json:"ackFlags"`
	PartnerCard     *game.Card        `json:"partnerCard"`
	TrumpBroken     bool              `json:"trumpBroken"`
	TrickWinnerSeat int               `json:"trickWinnerSeat"`
	WinningTeam     Team              `json:"winningTeam"`
	WinningSeats    []int             `json:"winningSeats"`
	Seats           []SeatView        `json:"seats"`
	Self            SelfView          `json:"self"`
}

type SeatView struct {
	Name      string `json:"name"`
	HandSize  int    `json:"handSize"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
	// HandPoints is only sent once the hands have been dealt.
	HandPoints *int `json:"handPoints,omitempty"`
}

type SelfView struct {
	ID         string      `json:"id"`
	Seat       int         `json:"seat"`
	Team       Team        `json:"team"`
	Hand       []game.Card `json:"hand"`
	HandValid  []bool      `json:"handValid"`
	HandPoints int         `json:"handPoints"`
}

// ViewFor builds the view of pid, or nil if pid is not seated here.
func (g *Game) ViewFor(pid string) *View {
	viewer, ok := g.Players[pid]
	if !ok {
		return nil
	}

	v := &View{
		RoomCode:        g.RoomCode,
		Phase:           g.Phase,
		CurrentBet:      g.CurrentBet,
		BetHistory:      slices.Clone(g.BetHistory),
		ActiveSeat:      g.ActiveSeat,
		TrickLeadSeat:   g.TrickLeadSeat,
		CurrentTrick:    g.CurrentTrick,
		AckFlags:        g.AckFlags,
		PartnerCard:     g.PartnerCard,
		TrumpBroken:     g.TrumpBroken,
		TrickWinnerSeat: g.TrickWinnerSeat,
		WinningTeam:     g.WinningTeam,
		WinningSeats:    g.WinningSeats(),
		Seats:           make([]SeatView, 0, len(g.SeatOrder)),
	}

	for seat := range g.TricksWon {
		v.TrickCounts[seat] = len(g.TricksWon[seat])
	}

	for _, id := range g.SeatOrder {
		p := g.Players[id]
		sv := SeatView{
			Name:      p.Name,
			HandSize:  len(p.Hand),
			Ready:     p.Ready,
			Connected: p.Connected(),
		}
		if g.Phase != PhaseLobby {
			points := p.HandPoints
			sv.HandPoints = &points
		}
		v.Seats = append(v.Seats, sv)
	}

	hand := slices.Clone(viewer.Hand)
	if hand == nil {
		hand = []game.Card{}
	}
	v.Self = SelfView{
		ID:         viewer.ID,
		Seat:       g.SeatOf(pid),
		Team:       viewer.Team,
		Hand:       hand,
		HandValid:  LegalFlags(hand, g.TrumpBroken, g.Trump(), g.leadCard()),
		HandPoints: viewer.HandPoints,
	}
	return v
}
