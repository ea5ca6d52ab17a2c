package bridge_test

import (
	"fmt"
	"slices"
	"testing"

	"bridge-server/internal/bridge"
	"bridge-server/internal/game"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	views []*bridge.View
	err   error
}

func (r *recorder) Deliver(v *bridge.View) error {
	r.views = append(r.views, v)
	return r.err
}

func (r *recorder) last() *bridge.View {
	if len(r.views) == 0 {
		return nil
	}
	return r.views[len(r.views)-1]
}

func card(v game.Rank, s game.Suit) game.Card {
	return game.Card{Value: v, Suit: s}
}

// stripedHands deals the ordered deck round the table one card at a time.
// Every seat ends up holding every suit with a strength of 10.
func stripedHands() [4][]game.Card {
	var hands [4][]game.Card
	for i, c := range game.NewDeck().Cards {
		hands[i%4] = append(hands[i%4], c)
	}
	for _, h := range hands {
		game.SortHand(h)
	}
	return hands
}

// weakHands gives seat 0 thirteen low cards (strength 0) and stripes the
// rest over seats 1 to 3 (strengths 8, 12 and 20).
func weakHands() [4][]game.Card {
	var hands [4][]game.Card
	var rest []game.Card
	for _, c := range game.NewDeck().Cards {
		if c.Value <= game.Five && len(hands[0]) < game.HandSize {
			hands[0] = append(hands[0], c)
			continue
		}
		rest = append(rest, c)
	}
	for i, c := range rest {
		hands[1+i%3] = append(hands[1+i%3], c)
	}
	for _, h := range hands {
		game.SortHand(h)
	}
	return hands
}

type scriptedDealer struct {
	deals [][4][]game.Card
	calls int
}

// next hands out the scripted deals in order and then repeats the last one.
func (d *scriptedDealer) next() [4][]game.Card {
	deal := d.deals[min(d.calls, len(d.deals)-1)]
	d.calls++
	var out [4][]game.Card
	for seat := range deal {
		out[seat] = slices.Clone(deal[seat])
	}
	return out
}

func seatedGame(t *testing.T, deals ...[4][]game.Card) (*bridge.Game, []string, *scriptedDealer) {
	t.Helper()
	if len(deals) == 0 {
		deals = append(deals, stripedHands())
	}
	dealer := &scriptedDealer{deals: deals}
	g := bridge.NewGame("ABCD", bridge.WithDealer(dealer.next))

	pids := make([]string, 4)
	for i := range pids {
		pids[i] = fmt.Sprintf("p%d", i)
		require.NoError(t, g.AddPlayer(pids[i], fmt.Sprintf("Player %d", i), nil))
	}
	return g, pids, dealer
}

func startedGame(t *testing.T, deals ...[4][]game.Card) (*bridge.Game, []string, *scriptedDealer) {
	t.Helper()
	g, pids, dealer := seatedGame(t, deals...)
	for _, pid := range pids {
		require.NoError(t, g.ToggleReady(pid))
	}
	return g, pids, dealer
}

func bet(contract int, suit game.Suit) *bridge.Bet {
	return &bridge.Bet{Contract: contract, Suit: suit}
}

// playingGame has p0 win the bid at contract/suit and call partner, with
// stripedHands dealt.
func playingGame(t *testing.T, contract int, suit game.Suit, partner game.Card) (*bridge.Game, []string) {
	t.Helper()
	g, pids, _ := startedGame(t)
	require.NoError(t, g.SubmitBet(pids[0], bet(contract, suit)))
	for _, pid := range pids[1:] {
		require.NoError(t, g.SubmitBet(pid, nil))
	}
	require.Equal(t, bridge.PhasePartner, g.Phase)
	require.NoError(t, g.SubmitPartner(pids[0], partner))
	require.Equal(t, bridge.PhasePlaying, g.Phase)
	return g, pids
}

func cardsInPlay(g *bridge.Game) int {
	total := 0
	for _, p := range g.Players {
		total += len(p.Hand)
	}
	for _, tricks := range g.TricksWon {
		total += 4 * len(tricks)
	}
	for _, c := range g.CurrentTrick {
		if c != nil {
			total++
		}
	}
	return total
}
