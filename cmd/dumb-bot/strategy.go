package main

import (
	"blackjack-casino/internal/app/play"
	"blackjack-casino/internal/game"
)

// decide picks a basic-strategy action for the active hand, falling back to
// the nearest allowed action. It never takes insurance.
func decide(v *play.GameView) string {
	allowed := map[string]bool{}
	for _, a := range v.AllowedActions {
		allowed[a] = true
	}
	up := upCard(v)
	hand := v.PlayerHand
	pair := len(hand.Cards) == 2 && points(hand.Cards[0]) == points(hand.Cards[1]) && hand.Cards[0].Rank == hand.Cards[1].Rank

	var want string
	switch {
	case pair && allowed["split"] && splits(points(hand.Cards[0]), up):
		want = "split"
	case hand.Soft:
		want = soft(hand.Value, up)
	default:
		want = hard(hand.Value, up)
	}
	if want == "surrender" && !allowed["surrender"] {
		want = "hit"
	}
	if want == "double_down" && !allowed["double_down"] {
		// soft 18 stands when it cannot double
		if hand.Soft && hand.Value >= 18 {
			want = "stand"
		} else {
			want = "hit"
		}
	}
	if !allowed[want] {
		want = "stand"
	}
	return want
}

func points(c play.CardView) int {
	card, err := game.ParseCard(c.Code)
	if err != nil {
		return 0
	}
	return card.Points()
}

func upCard(v *play.GameView) int {
	if len(v.DealerHand.Cards) == 0 {
		return 10
	}
	return points(v.DealerHand.Cards[0])
}

func splits(card, up int) bool {
	switch card {
	case 11, 8:
		return true
	case 9:
		return up <= 9 && up != 7
	case 7, 3, 2:
		return up <= 7
	case 6:
		return up <= 6
	case 4:
		return up == 5 || up == 6
	default:
		return false
	}
}

func soft(total, up int) string {
	switch {
	case total >= 19:
		return "stand"
	case total == 18:
		if up >= 3 && up <= 6 {
			return "double_down"
		}
		if up <= 8 {
			return "stand"
		}
		return "hit"
	case total == 17:
		if up >= 3 && up <= 6 {
			return "double_down"
		}
	case total >= 15:
		if up >= 4 && up <= 6 {
			return "double_down"
		}
	case total >= 13:
		if up == 5 || up == 6 {
			return "double_down"
		}
	}
	return "hit"
}

func hard(total, up int) string {
	switch {
	case total >= 17:
		return "stand"
	case total == 16 && up >= 9, total == 15 && up == 10:
		return "surrender"
	case total >= 13:
		if up <= 6 {
			return "stand"
		}
	case total == 12:
		if up >= 4 && up <= 6 {
			return "stand"
		}
	case total == 11:
		return "double_down"
	case total == 10:
		if up <= 9 {
			return "double_down"
		}
	case total == 9:
		if up >= 3 && up <= 6 {
			return "double_down"
		}
	}
	return "hit"
}
