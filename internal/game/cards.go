package game

import (
	"fmt"
	"math/rand"
	"slices"
)

type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists the four card suits in rank order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

var suitString = map[Suit]string{
	Clubs:    "Clubs",
	Diamonds: "Diamonds",
	Hearts:   "Hearts",
	Spades:   "Spades",
}

var suitSymbol = map[Suit]string{
	Clubs:    "♣",
	Diamonds: "♦",
	Hearts:   "♥",
	Spades:   "♠",
}

func (s Suit) String() string {
	if name, ok := suitString[s]; ok {
		return name
	}
	return fmt.Sprintf("Suit(%d)", int(s))
}

func (s Suit) Symbol() string {
	return suitSymbol[s]
}

func (s Suit) Valid() bool {
	return s >= Clubs && s <= Spades
}

type Rank int

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

var rankString = map[Rank]string{
	Jack:  "J",
	Queen: "Q",
	King:  "K",
	Ace:   "A",
}

func (r Rank) String() string {
	if name, ok := rankString[r]; ok {
		return name
	}
	return fmt.Sprintf("%d", int(r))
}

func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

// HandSize is the number of cards each of the four seats is dealt.
const HandSize = 13

type Card struct {
	Value Rank `json:"value"`
	Suit  Suit `json:"suit"`
}

func (card Card) String() string {
	return card.Value.String() + card.Suit.Symbol()
}

func (card Card) Valid() bool {
	return card.Value.Valid() && card.Suit.Valid()
}

// Less orders cards by suit, then by value.
func (card Card) Less(other Card) bool {
	if card.Suit != other.Suit {
		return card.Suit < other.Suit
	}
	return card.Value < other.Value
}

type Deck struct {
	Cards []Card `json:"cards"`
}

func NewDeck() *Deck {
	deck := make([]Card, 0, 52)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			deck = append(deck, Card{Value: rank, Suit: suit})
		}
	}

	return &Deck{deck}
}

func (deck Deck) Count() int {
	return len(deck.Cards)
}

// DrawRandom removes and returns a uniformly chosen card from the deck.
func (deck *Deck) DrawRandom(rng *rand.Rand) Card {
	last := len(deck.Cards) - 1
	i := rng.Intn(len(deck.Cards))
	card := deck.Cards[i]
	deck.Cards[i] = deck.Cards[last]
	deck.Cards = deck.Cards[:last]
	return card
}

// Deal hands out a fresh deck to four seats, one random card at a time.
func Deal(rng *rand.Rand) [4][]Card {
	deck := NewDeck()
	var hands [4][]Card
	for seat := range hands {
		hands[seat] = make([]Card, 0, HandSize)
	}
	for range HandSize {
		for seat := range hands {
			hands[seat] = append(hands[seat], deck.DrawRandom(rng))
		}
	}
	for seat := range hands {
		SortHand(hands[seat])
	}
	return hands
}

func SortHand(hand []Card) {
	slices.SortFunc(hand, func(a, b Card) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
}

func IndexOf(hand []Card, card Card) int {
	return slices.Index(hand, card)
}

func Contains(hand []Card, card Card) bool {
	return slices.Contains(hand, card)
}

// Remove returns hand without the first copy of card.
func Remove(hand []Card, card Card) []Card {
	i := IndexOf(hand, card)
	if i < 0 {
		return hand
	}
	return slices.Delete(hand, i, i+1)
}
