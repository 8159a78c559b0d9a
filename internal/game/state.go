package game

import (
	"time"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateAwaitingBet State = "AWAITING_BET"
	StatePlaying     State = "PLAYING"
	StateDealerTurn  State = "DEALER_TURN"
	StateSettled     State = "SETTLED"
)

type HandStatus string

const (
	HandActive      HandStatus = "ACTIVE"
	HandStood       HandStatus = "STOOD"
	HandBusted      HandStatus = "BUSTED"
	HandBlackjack   HandStatus = "BLACKJACK"
	HandSurrendered HandStatus = "SURRENDERED"
)

type Resolution string

const (
	ResolutionWin             Resolution = "WIN"
	ResolutionLose            Resolution = "LOSE"
	ResolutionPush            Resolution = "PUSH"
	ResolutionBlackjackPayout Resolution = "BLACKJACK_PAYOUT"
)

// Outcome is the single per-game result the history filters match on.
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLose      Outcome = "lose"
	OutcomePush      Outcome = "push"
	OutcomeBlackjack Outcome = "blackjack"
)

type ActionType string

const (
	ActionHit        ActionType = "hit"
	ActionStand      ActionType = "stand"
	ActionDoubleDown ActionType = "double_down"
	ActionSplit      ActionType = "split"
	ActionSurrender  ActionType = "surrender"
	ActionInsurance  ActionType = "insurance"
)

type Hand struct {
	Cards      []Card          `json:"cards"`
	Bet        decimal.Decimal `json:"bet"`
	Status     HandStatus      `json:"status"`
	Resolution Resolution      `json:"resolution,omitempty"`
	Payout     decimal.Decimal `json:"payout"`
	Doubled    bool            `json:"doubled,omitempty"`
	FromSplit  bool            `json:"fromSplit,omitempty"`
	Actions    int             `json:"actions"`
}

func (h *Hand) Value() (int, bool) {
	return Value(h.Cards)
}

type Game struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	State  State  `json:"state"`

	Deck   *Deck   `json:"deck"`
	Dealer Hand    `json:"dealer"`
	Hands  []*Hand `json:"hands"`

	DealerRevealed  bool            `json:"dealerRevealed"`
	InsuranceTaken  bool            `json:"insuranceTaken"`
	InsuranceBet    decimal.Decimal `json:"insuranceBet"`
	InsurancePayout decimal.Decimal `json:"insurancePayout"`

	Outcome Outcome         `json:"outcome,omitempty"`
	Wagered decimal.Decimal `json:"wagered"`
	Paid    decimal.Decimal `json:"paid"`

	CreatedAt time.Time  `json:"createdAt"`
	SettledAt *time.Time `json:"settledAt,omitempty"`
}

// ActiveHand returns the first unresolved hand, left to right.
func (g *Game) ActiveHand() (*Hand, int) {
	for i, h := range g.Hands {
		if h.Status == HandActive {
			return h, i
		}
	}
	return nil, -1
}

func (g *Game) Settled() bool {
	return g.State == StateSettled
}

// Net is the user's balance delta for the game, insurance included.
func (g *Game) Net() decimal.Decimal {
	return g.Paid.Sub(g.Wagered)
}

func (g *Game) anyStood() bool {
	for _, h := range g.Hands {
		if h.Status == HandStood {
			return true
		}
	}
	return false
}
