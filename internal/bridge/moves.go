package bridge

import (
	"time"

	"bridge-server/internal/game"
)

// DealResult summarises a decided deal.
type DealResult struct {
	RoomCode       string
	Contract       Bet
	PartnerCard    game.Card
	DeclarerTricks int
	DefenderTricks int
	WinningTeam    Team
	WinningSeats   []int
	Seats          [Seats]string
	FinishedAt     time.Time
}

// actingSeat resolves pid to a seat, checking the phase first.
func (g *Game) actingSeat(pid string, phases ...Phase) (int, error) {
	seat := g.SeatOf(pid)
	if seat < 0 {
		return -1, ErrPlayerNotFound
	}
	for _, phase := range phases {
		if g.Phase == phase {
			return seat, nil
		}
	}
	return -1, ErrWrongPhase
}

/*
 * Wash
 */

// SubmitWash accepts or declines a redeal. Only a seat whose hand scores at
// most the wash threshold may answer.
func (g *Game) SubmitWash(pid string, accept bool) error {
	if _, err := g.actingSeat(pid, PhaseWash); err != nil {
		return err
	}
	player := g.Players[pid]
	if !game.CanWash(player.HandPoints) {
		return ErrWashNotOffered
	}

	if accept {
		g.deal()
		return nil
	}

	// Declining keeps the hands and takes this seat out of the offer.
	player.HandPoints = game.WashThreshold + 1
	g.checkWash()
	return nil
}

/*
 * Bidding
 */

// SubmitBet places bet for the active seat, or passes when bet is nil.
func (g *Game) SubmitBet(pid string, bet *Bet) error {
	seat, err := g.actingSeat(pid, PhaseBid)
	if err != nil {
		return err
	}
	if seat != g.ActiveSeat {
		return ErrNotYourTurn
	}

	if bet == nil {
		g.BetHistory = append(g.BetHistory, nil)
		g.ActiveSeat = g.nextSeat(g.ActiveSeat)

		switch {
		case g.ActiveSeat == g.CurrentBet.Order:
			g.Phase = PhasePartner
		case g.CurrentBet.Contract == 0 && g.ActiveSeat == 0:
			// Everyone passed. Throw the hands in.
			g.deal()
		}
		return nil
	}

	if !bet.Valid() {
		return ErrInvalidBet
	}
	if !bet.Beats(g.CurrentBet) {
		return ErrBetTooLow
	}

	accepted := Bet{Contract: bet.Contract, Suit: bet.Suit, Order: seat}
	g.CurrentBet = accepted
	g.BetHistory = append(g.BetHistory, &accepted)
	g.ActiveSeat = g.nextSeat(g.ActiveSeat)
	return nil
}

/*
 * Partner
 */

// SubmitPartner names the card whose holder joins the bidder.
func (g *Game) SubmitPartner(pid string, card game.Card) error {
	seat, err := g.actingSeat(pid, PhasePartner)
	if err != nil {
		return err
	}
	if seat != g.CurrentBet.Order {
		return ErrNotBidder
	}
	if !card.Valid() {
		return ErrInvalidCard
	}

	var partner *Player
	for _, p := range g.Players {
		if game.Contains(p.Hand, card) {
			partner = p
			break
		}
	}
	if partner == nil {
		return ErrInvalidCard
	}

	for _, p := range g.Players {
		p.Team = TeamDefenders
	}
	partner.Team = TeamDeclarers
	g.Players[pid].Team = TeamDeclarers
	g.PartnerCard = &card

	start := seat
	if g.CurrentBet.Suit != NoTrump {
		start = g.nextSeat(start)
	}
	g.ActiveSeat = start
	g.TrickLeadSeat = start
	g.Phase = PhasePlaying
	return nil
}

/*
 * Play
 */

func (g *Game) leadCard() *game.Card {
	if g.TrickLeadSeat < 0 {
		return nil
	}
	return g.CurrentTrick[g.TrickLeadSeat]
}

func (g *Game) PlayCard(pid string, card game.Card) error {
	seat, err := g.actingSeat(pid, PhasePlaying)
	if err != nil {
		return err
	}
	if seat != g.ActiveSeat {
		return ErrNotYourTurn
	}
	if !card.Valid() {
		return ErrInvalidCard
	}

	player := g.Players[pid]
	idx := game.IndexOf(player.Hand, card)
	if idx < 0 {
		return ErrCardNotHeld
	}
	if err := checkPlay(player.Hand, idx, g.TrumpBroken, g.Trump(), g.leadCard()); err != nil {
		return err
	}

	if card.Suit == g.Trump() {
		g.TrumpBroken = true
	}
	g.CurrentTrick[seat] = &card
	player.Hand = game.Remove(player.Hand, card)

	g.ActiveSeat = g.nextSeat(g.ActiveSeat)
	if g.ActiveSeat == g.TrickLeadSeat {
		g.resolveTrick()
	}
	return nil
}

func (g *Game) resolveTrick() {
	winner := TrickWinner(g.CurrentTrick, g.TrickLeadSeat, g.Trump())

	var trick [Seats]game.Card
	for seat, card := range g.CurrentTrick {
		trick[seat] = *card
	}
	g.TricksWon[winner] = append(g.TricksWon[winner], trick)
	g.TrickWinnerSeat = winner
	g.ActiveSeat = -1
	g.AckFlags = [Seats]bool{}

	declarers, defenders := g.teamTricks()
	switch {
	case declarers >= DeclarerTarget(g.CurrentBet.Contract):
		g.WinningTeam = TeamDeclarers
	case defenders >= DefenderTarget(g.CurrentBet.Contract):
		g.WinningTeam = TeamDefenders
	}

	if g.WinningTeam == TeamNone {
		g.Phase = PhaseRoundEnd
		return
	}

	g.Phase = PhaseGameEnd
	if g.OnGameEnd != nil {
		g.OnGameEnd(g.result(declarers, defenders))
	}
}

func (g *Game) result(declarers, defenders int) DealResult {
	res := DealResult{
		RoomCode:       g.RoomCode,
		Contract:       g.CurrentBet,
		DeclarerTricks: declarers,
		DefenderTricks: defenders,
		WinningTeam:    g.WinningTeam,
		WinningSeats:   g.WinningSeats(),
		FinishedAt:     time.Now().UTC(),
	}
	if g.PartnerCard != nil {
		res.PartnerCard = *g.PartnerCard
	}
	for seat, pid := range g.SeatOrder {
		res.Seats[seat] = g.Players[pid].Name
	}
	return res
}

/*
 * Move on
 */

// SubmitMoveOn acknowledges the end of a trick or of the deal. Repeat
// acknowledgements succeed without changing anything.
func (g *Game) SubmitMoveOn(pid string) error {
	seat, err := g.actingSeat(pid, PhaseRoundEnd, PhaseGameEnd)
	if err != nil {
		return err
	}

	g.AckFlags[seat] = true
	for _, ok := range g.AckFlags {
		if !ok {
			return nil
		}
	}

	if g.Phase == PhaseRoundEnd {
		g.CurrentTrick = [Seats]*game.Card{}
		g.AckFlags = [Seats]bool{}
		g.ActiveSeat = g.TrickWinnerSeat
		g.TrickLeadSeat = g.TrickWinnerSeat
		g.Phase = PhasePlaying
		return nil
	}

	g.resetDeal()
	// The first seat moves to the back for the next deal.
	g.SeatOrder = append(g.SeatOrder[1:], g.SeatOrder[0])
	g.Phase = PhaseLobby
	return nil
}
