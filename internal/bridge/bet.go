package bridge

import (
	"fmt"

	"bridge-server/internal/game"
)

// NoTrump ranks above every real suit at the same contract.
const NoTrump game.Suit = 4

const (
	MinContract = 1
	MaxContract = 7
)

type Bet struct {
	Contract int       `json:"contract"`
	Suit     game.Suit `json:"suit"`
	Order    int       `json:"order"`
}

// NoBet is the current bet before anyone has bid this deal.
var NoBet = Bet{Contract: 0, Suit: NoTrump, Order: -1}

func (b Bet) Valid() bool {
	return b.Contract >= MinContract && b.Contract <= MaxContract &&
		b.Suit >= game.Clubs && b.Suit <= NoTrump
}

// Beats reports whether b is strictly higher than other. Order is ignored.
func (b Bet) Beats(other Bet) bool {
	if b.Contract != other.Contract {
		return b.Contract > other.Contract
	}
	return b.Suit > other.Suit
}

func (b Bet) String() string {
	if b.Contract == 0 {
		return "-"
	}
	if b.Suit == NoTrump {
		return fmt.Sprintf("%dNT", b.Contract)
	}
	return fmt.Sprintf("%d%s", b.Contract, b.Suit.Symbol())
}
