package blackjack

type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

type Rank string

// Suits and Ranks give the fixed enumeration order used when building a shoe.
// Changing either order changes every seeded shuffle, so they are part of the
// fairness contract.
var (
	Suits = []Suit{Spades, Hearts, Diamonds, Clubs}
	Ranks = []Rank{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// Card is an immutable rank/suit pair. ID is unique within a shoe and exists
// only so clients can correlate cards across state updates.
type Card struct {
	Rank Rank   `json:"rank"`
	Suit Suit   `json:"suit"`
	ID   string `json:"id"`
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// cardValue returns the pre-adjustment point value: aces count 11 until the
// hand evaluator demotes them.
func cardValue(r Rank) int {
	switch r {
	case "A":
		return 11
	case "K", "Q", "J", "10":
		return 10
	case "9":
		return 9
	case "8":
		return 8
	case "7":
		return 7
	case "6":
		return 6
	case "5":
		return 5
	case "4":
		return 4
	case "3":
		return 3
	case "2":
		return 2
	}
	return 0
}
