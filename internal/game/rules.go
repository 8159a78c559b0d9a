package game

import (
	"errors"
	"strings"
)

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidBet    = errors.New("invalid_bet")
	ErrGameSettled   = errors.New("game_settled")
)

// Rules holds the table options that vary between houses. The dealer always
// stands on every 17.
type Rules struct {
	DoubleAfterSplit bool
	SplitAcesOneCard bool
}

func DefaultRules() Rules {
	return Rules{DoubleAfterSplit: true, SplitAcesOneCard: true}
}

func ParseAction(raw string) (ActionType, error) {
	a := ActionType(strings.ToLower(strings.TrimSpace(raw)))
	switch a {
	case ActionHit, ActionStand, ActionDoubleDown, ActionSplit, ActionSurrender, ActionInsurance:
		return a, nil
	default:
		return "", ErrInvalidAction
	}
}

// ValidateAction checks that action is legal for hand h, the acting hand of g.
func ValidateAction(g *Game, h *Hand, action ActionType, rules Rules) error {
	if g.State != StatePlaying || h == nil || h.Status != HandActive {
		return ErrInvalidAction
	}
	firstAction := h.Actions == 0 && len(h.Cards) == 2
	switch action {
	case ActionHit, ActionStand:
		return nil
	case ActionDoubleDown:
		if !firstAction {
			return ErrInvalidAction
		}
		if h.FromSplit && !rules.DoubleAfterSplit {
			return ErrInvalidAction
		}
		return nil
	case ActionSplit:
		// no re-split
		if !firstAction || h.FromSplit || len(g.Hands) != 1 {
			return ErrInvalidAction
		}
		if h.Cards[0].Rank != h.Cards[1].Rank {
			return ErrInvalidAction
		}
		return nil
	case ActionSurrender:
		if !firstAction || h.FromSplit || len(g.Hands) != 1 {
			return ErrInvalidAction
		}
		return nil
	case ActionInsurance:
		if g.InsuranceTaken || !firstAction || len(g.Hands) != 1 {
			return ErrInvalidAction
		}
		if len(g.Dealer.Cards) == 0 || g.Dealer.Cards[0].Rank != Ace {
			return ErrInvalidAction
		}
		if !half(h.Bet).IsPositive() {
			return ErrInvalidAction
		}
		return nil
	default:
		return ErrInvalidAction
	}
}
