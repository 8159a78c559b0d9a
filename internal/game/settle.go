package game

import (
	"context"

	"blackjack-casino/internal/ledger"

	"github.com/shopspring/decimal"
)

var (
	payWin       = decimal.NewFromInt(2)
	payBlackjack = decimal.NewFromFloat(2.5)
	payPush      = decimal.NewFromInt(1)
	payInsurance = decimal.NewFromInt(3)
)

var two = decimal.NewFromInt(2)

// Derived amounts round down to the ledger scale. The sub-unit remainder
// stays with the house.
func toScale(d decimal.Decimal) decimal.Decimal {
	return d.RoundFloor(ledger.Scale)
}

// half is the surrender refund and the insurance stake for bet.
func half(bet decimal.Decimal) decimal.Decimal {
	return toScale(bet.Div(two))
}

// ResolveHand decides a finished player hand against the dealer's final cards
// and returns the amount credited back, stake included.
func ResolveHand(h *Hand, dealer []Card) (Resolution, decimal.Decimal) {
	dealerNatural := IsBlackjack(dealer)
	switch h.Status {
	case HandSurrendered:
		return ResolutionLose, h.Payout
	case HandBusted:
		return ResolutionLose, decimal.Zero
	case HandBlackjack:
		if dealerNatural {
			return ResolutionPush, h.Bet.Mul(payPush)
		}
		return ResolutionBlackjackPayout, toScale(h.Bet.Mul(payBlackjack))
	}
	if dealerNatural {
		return ResolutionLose, decimal.Zero
	}
	player, _ := h.Value()
	house, _ := Value(dealer)
	switch {
	case house > 21 || player > house:
		return ResolutionWin, h.Bet.Mul(payWin)
	case player == house:
		return ResolutionPush, h.Bet.Mul(payPush)
	default:
		return ResolutionLose, decimal.Zero
	}
}

func (e *Engine) settle(ctx context.Context, w Wallet, g *Game) error {
	for _, h := range g.Hands {
		if h.Status == HandSurrendered {
			continue
		}
		res, amount := ResolveHand(h, g.Dealer.Cards)
		if amount.IsPositive() {
			kind := ledger.KindPayout
			if res == ResolutionPush {
				kind = ledger.KindRefund
			}
			if err := w.Credit(ctx, amount, kind, g.ID); err != nil {
				return err
			}
			g.Paid = g.Paid.Add(amount)
		}
		h.Resolution = res
		h.Payout = amount
	}

	if g.InsuranceTaken && IsBlackjack(g.Dealer.Cards) {
		amount := g.InsuranceBet.Mul(payInsurance)
		if err := w.Credit(ctx, amount, ledger.KindPayout, g.ID); err != nil {
			return err
		}
		g.InsurancePayout = amount
		g.Paid = g.Paid.Add(amount)
	}

	g.Outcome = outcomeOf(g)
	g.State = StateSettled
	now := e.Now().UTC()
	g.SettledAt = &now
	return nil
}

// outcomeOf maps a settled game to exactly one history outcome. A split game
// is judged on its hands' combined result; insurance never changes it.
func outcomeOf(g *Game) Outcome {
	if len(g.Hands) == 1 {
		switch g.Hands[0].Resolution {
		case ResolutionWin:
			return OutcomeWin
		case ResolutionPush:
			return OutcomePush
		case ResolutionBlackjackPayout:
			return OutcomeBlackjack
		default:
			return OutcomeLose
		}
	}
	net := decimal.Zero
	for _, h := range g.Hands {
		net = net.Add(h.Payout).Sub(h.Bet)
	}
	switch net.Sign() {
	case 1:
		return OutcomeWin
	case -1:
		return OutcomeLose
	default:
		return OutcomePush
	}
}
