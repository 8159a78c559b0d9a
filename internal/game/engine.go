package game

import (
	"context"
	"time"

	"blackjack-casino/internal/ledger"

	"github.com/shopspring/decimal"
)

// Wallet moves money for one user on behalf of one game. Implementations must
// be atomic per call and reject debits that would overdraw.
type Wallet interface {
	Debit(ctx context.Context, amount decimal.Decimal, kind ledger.Kind, gameID string) error
	Credit(ctx context.Context, amount decimal.Decimal, kind ledger.Kind, gameID string) error
}

// Engine runs the blackjack state machine. Wallet calls happen before the
// state they pay for is mutated, so a failed debit leaves the game untouched.
// A failed credit during settlement leaves the game half-settled; callers run
// Deal and Apply inside a store transaction and drop the game on error.
type Engine struct {
	Rules   Rules
	NewDeck func() *Deck
	Now     func() time.Time
}

func NewEngine(rules Rules) *Engine {
	return &Engine{Rules: rules, NewDeck: ShuffledDeck, Now: time.Now}
}

func (e *Engine) NewGame(id, userID string) *Game {
	return &Game{
		ID:        id,
		UserID:    userID,
		State:     StateAwaitingBet,
		CreatedAt: e.Now().UTC(),
	}
}

func (e *Engine) Deal(ctx context.Context, w Wallet, g *Game, bet decimal.Decimal) error {
	if g.State != StateAwaitingBet {
		return ErrInvalidAction
	}
	if !bet.IsPositive() || !ledger.InScale(bet) {
		return ErrInvalidBet
	}
	if err := w.Debit(ctx, bet, ledger.KindBet, g.ID); err != nil {
		return err
	}
	g.Wagered = bet
	g.Deck = e.NewDeck()

	hand := &Hand{Bet: bet, Status: HandActive}
	hand.Cards = append(hand.Cards, g.Deck.Draw())
	g.Dealer.Cards = append(g.Dealer.Cards, g.Deck.Draw())
	hand.Cards = append(hand.Cards, g.Deck.Draw())
	g.Dealer.Cards = append(g.Dealer.Cards, g.Deck.Draw())
	g.Hands = []*Hand{hand}
	g.State = StatePlaying

	if IsBlackjack(hand.Cards) {
		hand.Status = HandBlackjack
		return e.advance(ctx, w, g)
	}
	return nil
}

func (e *Engine) Apply(ctx context.Context, w Wallet, g *Game, action ActionType) error {
	if g.State == StateSettled {
		return ErrGameSettled
	}
	h, idx := g.ActiveHand()
	if err := ValidateAction(g, h, action, e.Rules); err != nil {
		return err
	}

	switch action {
	case ActionHit:
		h.Cards = append(h.Cards, g.Deck.Draw())
		h.Actions++
		if IsBust(h.Cards) {
			h.Status = HandBusted
		}
	case ActionStand:
		h.Actions++
		h.Status = HandStood
	case ActionDoubleDown:
		if err := w.Debit(ctx, h.Bet, ledger.KindBet, g.ID); err != nil {
			return err
		}
		g.Wagered = g.Wagered.Add(h.Bet)
		h.Bet = h.Bet.Mul(decimal.NewFromInt(2))
		h.Doubled = true
		h.Actions++
		h.Cards = append(h.Cards, g.Deck.Draw())
		if IsBust(h.Cards) {
			h.Status = HandBusted
		} else {
			h.Status = HandStood
		}
	case ActionSplit:
		if err := w.Debit(ctx, h.Bet, ledger.KindBet, g.ID); err != nil {
			return err
		}
		g.Wagered = g.Wagered.Add(h.Bet)
		e.split(g, h, idx)
	case ActionSurrender:
		refund := half(h.Bet)
		if refund.IsPositive() {
			if err := w.Credit(ctx, refund, ledger.KindRefund, g.ID); err != nil {
				return err
			}
		}
		g.Paid = g.Paid.Add(refund)
		h.Actions++
		h.Status = HandSurrendered
		h.Resolution = ResolutionLose
		h.Payout = refund
	case ActionInsurance:
		side := half(h.Bet)
		if err := w.Debit(ctx, side, ledger.KindBet, g.ID); err != nil {
			return err
		}
		g.Wagered = g.Wagered.Add(side)
		g.InsuranceTaken = true
		g.InsuranceBet = side
	}
	return e.advance(ctx, w, g)
}

func (e *Engine) split(g *Game, h *Hand, idx int) {
	moved := h.Cards[1]
	h.Cards = []Card{h.Cards[0]}
	h.FromSplit = true
	h.Actions = 0
	sibling := &Hand{Cards: []Card{moved}, Bet: h.Bet, Status: HandActive, FromSplit: true}

	h.Cards = append(h.Cards, g.Deck.Draw())
	sibling.Cards = append(sibling.Cards, g.Deck.Draw())

	hands := make([]*Hand, 0, len(g.Hands)+1)
	hands = append(hands, g.Hands[:idx+1]...)
	hands = append(hands, sibling)
	hands = append(hands, g.Hands[idx+1:]...)
	g.Hands = hands

	if moved.Rank == Ace && e.Rules.SplitAcesOneCard {
		h.Status = HandStood
		sibling.Status = HandStood
	}
}

// advance moves to the dealer once no hand is left to act on.
func (e *Engine) advance(ctx context.Context, w Wallet, g *Game) error {
	if h, _ := g.ActiveHand(); h != nil {
		return nil
	}
	g.State = StateDealerTurn
	e.playDealer(g)
	return e.settle(ctx, w, g)
}

func (e *Engine) playDealer(g *Game) {
	g.DealerRevealed = true
	if !g.anyStood() {
		return
	}
	for {
		total, _ := g.Dealer.Value()
		if total >= 17 {
			return
		}
		g.Dealer.Cards = append(g.Dealer.Cards, g.Deck.Draw())
	}
}
