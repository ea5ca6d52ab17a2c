// Package bridge runs one floating bridge table: seating, the wash offer,
// bidding, the partner call and trick play. A Game is not safe for
// concurrent use; callers serialise every method call on one table.
package bridge

import (
	"math/rand"
	"slices"
	"time"

	"bridge-server/internal/game"
)

const Seats = 4

type Phase int

const (
	PhaseLobby Phase = iota
	PhaseWash
	PhaseBid
	PhasePartner
	PhasePlaying
	PhaseRoundEnd
	PhaseGameEnd
)

var phaseNames = map[Phase]string{
	PhaseLobby:    "lobby",
	PhaseWash:     "wash",
	PhaseBid:      "bid",
	PhasePartner:  "partner",
	PhasePlaying:  "playing",
	PhaseRoundEnd: "round_end",
	PhaseGameEnd:  "game_end",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Dealer produces four hands, one per seat.
type Dealer func() [Seats][]game.Card

type Game struct {
	RoomCode  string
	Players   map[string]*Player
	SeatOrder []string
	Phase     Phase

	CurrentBet Bet
	// BetHistory holds every accepted bid and every pass (nil) of this deal.
	BetHistory []*Bet

	ActiveSeat      int
	TrickLeadSeat   int
	TricksWon       [Seats][][Seats]game.Card
	CurrentTrick    [Seats]*game.Card
	AckFlags        [Seats]bool
	PartnerCard     *game.Card
	TrickWinnerSeat int
	TrumpBroken     bool
	WinningTeam     Team

	// OnGameEnd is called once each time a deal is decided.
	OnGameEnd func(DealResult)

	dealer Dealer
}

type Option func(*Game)

func WithDealer(d Dealer) Option {
	return func(g *Game) { g.dealer = d }
}

// WithRand deals from rng instead of a time-seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) {
		g.dealer = func() [Seats][]game.Card { return game.Deal(rng) }
	}
}

func NewGame(roomCode string, opts ...Option) *Game {
	g := &Game{
		RoomCode: roomCode,
		Players:  make(map[string]*Player, Seats),
	}
	WithRand(rand.New(rand.NewSource(time.Now().UnixNano())))(g)
	for _, opt := range opts {
		opt(g)
	}
	g.resetDeal()
	return g
}

func (g *Game) SeatOf(pid string) int {
	return slices.Index(g.SeatOrder, pid)
}

func (g *Game) PlayerAt(seat int) *Player {
	if seat < 0 || seat >= len(g.SeatOrder) {
		return nil
	}
	return g.Players[g.SeatOrder[seat]]
}

func (g *Game) IsEmpty() bool {
	return len(g.Players) == 0
}

// Trump is the trump suit of the current deal, NoTrump before bidding.
func (g *Game) Trump() game.Suit {
	return g.CurrentBet.Suit
}

func (g *Game) AddPlayer(pid, name string, conn Conn) error {
	if g.Phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	if len(g.Players) >= Seats {
		return ErrRoomFull
	}
	if _, ok := g.Players[pid]; ok {
		return ErrAlreadySeated
	}

	g.Players[pid] = &Player{
		ID:   pid,
		Name: dedupeName(g.Players, name),
		Conn: conn,
	}
	g.SeatOrder = append(g.SeatOrder, pid)
	return nil
}

func (g *Game) RemovePlayer(pid string) error {
	if _, ok := g.Players[pid]; !ok {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	g.removePlayer(pid)
	return nil
}

func (g *Game) removePlayer(pid string) {
	delete(g.Players, pid)
	g.SeatOrder = slices.DeleteFunc(g.SeatOrder, func(id string) bool { return id == pid })
}

// MovePlayer swaps a player with the neighbour rel seats away. rel is +1
// (down) or -1 (up).
func (g *Game) MovePlayer(pid string, rel int) error {
	seat := g.SeatOf(pid)
	if seat < 0 {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if rel != 1 && rel != -1 {
		return ErrInvalidPosition
	}
	target := seat + rel
	if target < 0 || target >= len(g.SeatOrder) {
		return ErrInvalidPosition
	}
	g.SeatOrder[seat], g.SeatOrder[target] = g.SeatOrder[target], g.SeatOrder[seat]
	return nil
}

// ToggleReady flips the player's ready flag and deals once all four seats
// are ready.
func (g *Game) ToggleReady(pid string) error {
	player, ok := g.Players[pid]
	if !ok {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}

	player.Ready = !player.Ready
	if g.allReady() {
		g.deal()
	}
	return nil
}

func (g *Game) allReady() bool {
	if len(g.Players) != Seats {
		return false
	}
	for _, p := range g.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// resetDeal clears everything scoped to a single deal. Seating and
// connections are kept.
func (g *Game) resetDeal() {
	g.CurrentBet = NoBet
	g.BetHistory = []*Bet{}
	g.ActiveSeat = -1
	g.TrickLeadSeat = -1
	g.TricksWon = [Seats][][Seats]game.Card{}
	g.CurrentTrick = [Seats]*game.Card{}
	g.AckFlags = [Seats]bool{}
	g.PartnerCard = nil
	g.TrickWinnerSeat = -1
	g.TrumpBroken = false
	g.WinningTeam = TeamNone
	for _, p := range g.Players {
		p.resetDeal()
	}
}

func (g *Game) deal() {
	g.resetDeal()
	hands := g.dealer()
	for seat, pid := range g.SeatOrder {
		player := g.Players[pid]
		player.Hand = hands[seat]
		player.HandPoints = game.HandStrength(hands[seat])
	}
	g.checkWash()
}

// checkWash moves to WASH while any seat may still ask for a redeal, and
// otherwise opens the bidding at seat 0.
func (g *Game) checkWash() {
	for _, p := range g.Players {
		if game.CanWash(p.HandPoints) {
			g.Phase = PhaseWash
			g.ActiveSeat = -1
			return
		}
	}
	g.Phase = PhaseBid
	g.ActiveSeat = 0
}

// abandonDeal throws the current deal away without rotating seats.
func (g *Game) abandonDeal() {
	g.resetDeal()
	g.Phase = PhaseLobby
}

func (g *Game) nextSeat(seat int) int {
	return (seat + 1) % Seats
}

// teamTricks counts completed tricks per team.
func (g *Game) teamTricks() (declarers, defenders int) {
	for seat, pid := range g.SeatOrder {
		won := len(g.TricksWon[seat])
		if g.Players[pid].Team == TeamDeclarers {
			declarers += won
		} else {
			defenders += won
		}
	}
	return declarers, defenders
}

// WinningSeats lists the seats of the winning team once a deal is decided.
func (g *Game) WinningSeats() []int {
	seats := []int{}
	if g.WinningTeam == TeamNone {
		return seats
	}
	for seat, pid := range g.SeatOrder {
		if g.Players[pid].Team == g.WinningTeam {
			seats = append(seats, seat)
		}
	}
	return seats
}
