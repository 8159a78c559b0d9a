package game

// Value totals a hand counting every ace as 11, then demotes aces to 1 one at
// a time while the total is over 21. soft reports an ace still counted as 11.
func Value(cards []Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		total += c.Points()
		if c.Rank == Ace {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

func IsBlackjack(cards []Card) bool {
	if len(cards) != 2 {
		return false
	}
	total, _ := Value(cards)
	return total == 21
}

func IsBust(cards []Card) bool {
	total, _ := Value(cards)
	return total > 21
}
