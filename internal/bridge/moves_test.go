package bridge_test

import (
	"math/rand"
	"testing"

	"bridge-server/internal/bridge"
	"bridge-server/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrongDealSkipsWash(t *testing.T) {
	g, _, dealer := startedGame(t)

	assert.Equal(t, 1, dealer.calls)
	assert.Equal(t, bridge.PhaseBid, g.Phase)
	assert.Equal(t, 0, g.ActiveSeat)
	assert.Equal(t, 52, cardsInPlay(g))
	for _, p := range g.Players {
		assert.Len(t, p.Hand, 13)
		assert.Equal(t, 10, p.HandPoints)
		assert.False(t, p.Ready)
	}
}

func TestHappyPathBid(t *testing.T) {
	g, pids, _ := startedGame(t)

	require.NoError(t, g.SubmitBet(pids[0], bet(1, game.Clubs)))
	assert.Equal(t, bridge.Bet{Contract: 1, Suit: game.Clubs, Order: 0}, g.CurrentBet)
	assert.Equal(t, 1, g.ActiveSeat)

	err := g.SubmitBet(pids[1], bet(1, game.Clubs))
	assert.ErrorIs(t, err, bridge.ErrBetTooLow)
	assert.Equal(t, bridge.Bet{Contract: 1, Suit: game.Clubs, Order: 0}, g.CurrentBet)
	assert.Equal(t, 1, g.ActiveSeat)
	assert.Len(t, g.BetHistory, 1)

	require.NoError(t, g.SubmitBet(pids[1], bet(1, game.Diamonds)))
	assert.Equal(t, bridge.Bet{Contract: 1, Suit: game.Diamonds, Order: 1}, g.CurrentBet)
	assert.Equal(t, 2, g.ActiveSeat)
}

func TestBetOrderComesFromSeat(t *testing.T) {
	g, pids, _ := startedGame(t)

	require.NoError(t, g.SubmitBet(pids[0], &bridge.Bet{Contract: 2, Suit: game.Hearts, Order: 3}))
	assert.Equal(t, 0, g.CurrentBet.Order)
}

func TestBetRejections(t *testing.T) {
	g, pids, _ := startedGame(t)

	assert.ErrorIs(t, g.SubmitBet(pids[1], bet(1, game.Clubs)), bridge.ErrNotYourTurn)
	assert.ErrorIs(t, g.SubmitBet(pids[0], bet(0, game.Clubs)), bridge.ErrInvalidBet)
	assert.ErrorIs(t, g.SubmitBet(pids[0], bet(8, game.Clubs)), bridge.ErrInvalidBet)
	assert.ErrorIs(t, g.SubmitBet("nobody", nil), bridge.ErrPlayerNotFound)
	assert.ErrorIs(t, g.SubmitPartner(pids[0], card(game.Ace, game.Spades)), bridge.ErrWrongPhase)

	assert.Equal(t, bridge.NoBet, g.CurrentBet)
	assert.Empty(t, g.BetHistory)
	assert.Equal(t, 0, g.ActiveSeat)
}

func TestBiddingEndsAfterThreePasses(t *testing.T) {
	g, pids, _ := startedGame(t)

	require.NoError(t, g.SubmitBet(pids[0], nil))
	require.NoError(t, g.SubmitBet(pids[1], bet(2, game.Hearts)))
	require.NoError(t, g.SubmitBet(pids[2], nil))
	require.NoError(t, g.SubmitBet(pids[3], nil))
	assert.Equal(t, bridge.PhaseBid, g.Phase)
	require.NoError(t, g.SubmitBet(pids[0], nil))

	assert.Equal(t, bridge.PhasePartner, g.Phase)
	assert.Equal(t, 1, g.ActiveSeat)
	require.Len(t, g.BetHistory, 5)
	assert.Nil(t, g.BetHistory[0])
	assert.Equal(t, bridge.Bet{Contract: 2, Suit: game.Hearts, Order: 1}, *g.BetHistory[1])
	assert.Nil(t, g.BetHistory[4])
}

func TestAllPassRedeals(t *testing.T) {
	g, pids, dealer := startedGame(t)

	for _, pid := range pids {
		require.NoError(t, g.SubmitBet(pid, nil))
	}

	assert.Equal(t, 2, dealer.calls)
	assert.Equal(t, bridge.PhaseBid, g.Phase)
	assert.Equal(t, 0, g.ActiveSeat)
	assert.Empty(t, g.BetHistory)
	assert.Equal(t, bridge.NoBet, g.CurrentBet)
}

func TestBidMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for round := 0; round < 50; round++ {
		g, pids, _ := startedGame(t)
		var accepted []bridge.Bet

		for g.Phase == bridge.PhaseBid && len(g.BetHistory) < 40 {
			pid := pids[g.ActiveSeat]
			if rng.Intn(3) == 0 {
				require.NoError(t, g.SubmitBet(pid, nil))
				continue
			}

			before := g.CurrentBet
			offer := bet(1+rng.Intn(7), game.Suit(rng.Intn(5)))
			err := g.SubmitBet(pid, offer)
			if offer.Beats(before) {
				require.NoError(t, err)
				accepted = append(accepted, g.CurrentBet)
			} else {
				require.ErrorIs(t, err, bridge.ErrBetTooLow)
				require.Equal(t, before, g.CurrentBet)
			}
		}

		for i := 1; i < len(accepted); i++ {
			assert.True(t, accepted[i].Beats(accepted[i-1]), "%s after %s", accepted[i], accepted[i-1])
		}
	}
}

func TestSubmitPartner(t *testing.T) {
	g, pids, _ := startedGame(t)
	require.NoError(t, g.SubmitBet(pids[0], bet(1, game.Spades)))
	for _, pid := range pids[1:] {
		require.NoError(t, g.SubmitBet(pid, nil))
	}

	// Seat 2 holds the ace of hearts in the striped deal.
	assert.ErrorIs(t, g.SubmitPartner(pids[1], card(game.Ace, game.Hearts)), bridge.ErrNotBidder)
	assert.ErrorIs(t, g.SubmitPartner(pids[0], game.Card{Value: 1, Suit: game.Hearts}), bridge.ErrInvalidCard)
	assert.Equal(t, bridge.PhasePartner, g.Phase)

	require.NoError(t, g.SubmitPartner(pids[0], card(game.Ace, game.Hearts)))

	assert.Equal(t, bridge.PhasePlaying, g.Phase)
	assert.Equal(t, bridge.TeamDeclarers, g.Players[pids[0]].Team)
	assert.Equal(t, bridge.TeamDefenders, g.Players[pids[1]].Team)
	assert.Equal(t, bridge.TeamDeclarers, g.Players[pids[2]].Team)
	assert.Equal(t, bridge.TeamDefenders, g.Players[pids[3]].Team)
	assert.Equal(t, card(game.Ace, game.Hearts), *g.PartnerCard)
	assert.Equal(t, 1, g.ActiveSeat)
	assert.Equal(t, 1, g.TrickLeadSeat)
}

func TestNoTrumpLeadsFromBidder(t *testing.T) {
	g, _ := playingGame(t, 1, bridge.NoTrump, card(game.Ace, game.Hearts))
	assert.Equal(t, 0, g.ActiveSeat)
	assert.Equal(t, 0, g.TrickLeadSeat)
}

func TestCallingOwnCard(t *testing.T) {
	// Seat 0 holds the ace of clubs.
	g, pids := playingGame(t, 1, game.Hearts, card(game.Ace, game.Clubs))

	for seat, pid := range pids {
		want := bridge.TeamDefenders
		if seat == 0 {
			want = bridge.TeamDeclarers
		}
		assert.Equal(t, want, g.Players[pid].Team)
	}
}

func TestFollowSuitEnforcement(t *testing.T) {
	g, pids := playingGame(t, 1, game.Spades, card(game.Ace, game.Hearts))

	require.NoError(t, g.PlayCard(pids[1], card(game.Nine, game.Hearts)))

	err := g.PlayCard(pids[2], card(game.Four, game.Clubs))
	assert.ErrorIs(t, err, bridge.ErrMustFollowSuit)
	assert.Contains(t, g.Players[pids[2]].Hand, card(game.Four, game.Clubs))
	assert.Equal(t, 2, g.ActiveSeat)

	require.NoError(t, g.PlayCard(pids[2], card(game.Ten, game.Hearts)))
	assert.Equal(t, 3, g.ActiveSeat)
	assert.NotContains(t, g.Players[pids[2]].Hand, card(game.Ten, game.Hearts))
	assert.Equal(t, 52, cardsInPlay(g))
}

func TestTrumpLeadBeforeBreak(t *testing.T) {
	g, pids := playingGame(t, 1, game.Spades, card(game.Ace, game.Hearts))

	err := g.PlayCard(pids[1], card(game.Queen, game.Spades))
	assert.ErrorIs(t, err, bridge.ErrTrumpNotBroken)
	assert.False(t, g.TrumpBroken)
	assert.Contains(t, g.Players[pids[1]].Hand, card(game.Queen, game.Spades))
	assert.Equal(t, 1, g.ActiveSeat)

	require.NoError(t, g.PlayCard(pids[1], card(game.Three, game.Clubs)))
	assert.ErrorIs(t, g.PlayCard(pids[1], card(game.Seven, game.Clubs)), bridge.ErrNotYourTurn)
	assert.ErrorIs(t, g.PlayCard(pids[2], card(game.Five, game.Clubs)), bridge.ErrCardNotHeld)
}

func moveOnAll(t *testing.T, g *bridge.Game, pids []string) {
	t.Helper()
	for _, pid := range pids {
		require.NoError(t, g.SubmitMoveOn(pid))
	}
}

func TestTrumpBreaksWhenRuffing(t *testing.T) {
	g, pids := playingGame(t, 1, game.Spades, card(game.Ace, game.Hearts))

	// Three rounds of clubs, all won by seat 3.
	require.NoError(t, g.PlayCard(pids[1], card(game.Three, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[2], card(game.Four, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[3], card(game.Five, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[0], card(game.Two, game.Clubs)))
	moveOnAll(t, g, pids)
	require.NoError(t, g.PlayCard(pids[3], card(game.Nine, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[0], card(game.Six, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[1], card(game.Seven, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[2], card(game.Eight, game.Clubs)))
	moveOnAll(t, g, pids)
	require.NoError(t, g.PlayCard(pids[3], card(game.King, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[0], card(game.Ten, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[1], card(game.Jack, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[2], card(game.Queen, game.Clubs)))
	moveOnAll(t, g, pids)

	// Only seat 0 has a club left.
	require.NoError(t, g.PlayCard(pids[3], card(game.Four, game.Diamonds)))
	require.NoError(t, g.PlayCard(pids[0], card(game.Five, game.Diamonds)))
	require.NoError(t, g.PlayCard(pids[1], card(game.Two, game.Diamonds)))
	require.NoError(t, g.PlayCard(pids[2], card(game.Three, game.Diamonds)))
	require.Equal(t, 0, g.TrickWinnerSeat)
	moveOnAll(t, g, pids)
	assert.False(t, g.TrumpBroken)

	// Seat 0 leads the last club; seat 1 has none and ruffs.
	require.NoError(t, g.PlayCard(pids[0], card(game.Ace, game.Clubs)))
	require.NoError(t, g.PlayCard(pids[1], card(game.Four, game.Spades)))
	assert.True(t, g.TrumpBroken)
	require.NoError(t, g.PlayCard(pids[2], card(game.Seven, game.Diamonds)))
	require.NoError(t, g.PlayCard(pids[3], card(game.Eight, game.Diamonds)))
	require.Equal(t, 1, g.TrickWinnerSeat)
	moveOnAll(t, g, pids)

	// Trump may now be led.
	require.NoError(t, g.PlayCard(pids[1], card(game.Queen, game.Spades)))
	assert.True(t, g.TrumpBroken)
}
