package blackjack

// Value is the evaluated worth of a hand. Soft means an ace is still counted
// as 11 without busting.
type Value struct {
	Total int  `json:"total"`
	Soft  bool `json:"soft"`
}

// HandValue sums a hand with aces at 11, then demotes aces one at a time
// while the total is over 21. This is the single scoring routine: the
// deal-time natural check and every bust check go through it.
func HandValue(hand []Card) Value {
	total, aces := 0, 0
	for _, c := range hand {
		if c.Rank == "A" {
			aces++
		}
		total += cardValue(c.Rank)
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return Value{Total: total, Soft: aces > 0 && total <= 21}
}

// IsBlackjack reports whether the hand is a natural: exactly two cards
// totaling 21.
func IsBlackjack(hand []Card) bool {
	return len(hand) == 2 && HandValue(hand).Total == 21
}
