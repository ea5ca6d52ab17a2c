package game

// WashThreshold is the highest hand strength that may ask for a redeal.
const WashThreshold = 4

// HandStrength scores a hand by its honours above ten and its long suits.
// Each card above Ten counts its value minus ten and every card past the
// fourth in a suit counts one.
func HandStrength(hand []Card) int {
	var suitCounts [4]int
	points := 0
	for _, card := range hand {
		suitCounts[card.Suit]++
		points += max(0, int(card.Value)-10)
	}
	for _, count := range suitCounts {
		points += max(0, count-4)
	}
	return points
}

// CanWash reports whether a hand of the given strength may ask for a redeal.
func CanWash(strength int) bool {
	return strength <= WashThreshold
}
