package bridge

import (
	"fmt"
	"slices"

	"bridge-server/internal/game"
)

func DeclarerTarget(contract int) int { return 6 + contract }

// DefenderTarget is the fewest tricks that leave the declarers unable to
// reach their target.
func DefenderTarget(contract int) int { return 8 - contract }

// checkPlay explains why hand[idx] cannot be played. lead is the card that
// opened the current trick, nil when hand[idx] would open it.
func checkPlay(hand []game.Card, idx int, trumpBroken bool, trump game.Suit, lead *game.Card) error {
	if idx < 0 || idx >= len(hand) {
		return ErrCardNotHeld
	}
	card := hand[idx]

	if lead == nil {
		if card.Suit == trump && !trumpBroken && slices.ContainsFunc(hand, func(c game.Card) bool {
			return c.Suit != trump
		}) {
			return ErrTrumpNotBroken
		}
		return nil
	}

	if card.Suit != lead.Suit && slices.ContainsFunc(hand, func(c game.Card) bool {
		return c.Suit == lead.Suit
	}) {
		return ErrMustFollowSuit
	}
	return nil
}

func IsLegal(hand []game.Card, idx int, trumpBroken bool, trump game.Suit, lead *game.Card) bool {
	return checkPlay(hand, idx, trumpBroken, trump, lead) == nil
}

// LegalFlags marks each card of hand with whether it may be played now.
func LegalFlags(hand []game.Card, trumpBroken bool, trump game.Suit, lead *game.Card) []bool {
	flags := make([]bool, len(hand))
	for i := range hand {
		flags[i] = IsLegal(hand, i, trumpBroken, trump, lead)
	}
	return flags
}

// TrickWinner returns the seat that takes a complete trick. It panics if any
// seat has not played.
func TrickWinner(trick [4]*game.Card, leadSeat int, trump game.Suit) int {
	for seat, card := range trick {
		if card == nil {
			panic(fmt.Sprintf("bridge: trick winner requested with seat %d empty", seat))
		}
	}

	winner := leadSeat
	best := *trick[leadSeat]
	for i := 1; i < len(trick); i++ {
		seat := (leadSeat + i) % len(trick)
		card := *trick[seat]
		switch {
		case card.Suit == trump && best.Suit != trump:
			winner, best = seat, card
		case card.Suit == best.Suit && card.Value > best.Value:
			winner, best = seat, card
		}
	}
	return winner
}
