package play

import (
	"time"

	"blackjack-casino/internal/game"

	"github.com/shopspring/decimal"
)

type Result struct {
	Game        *GameView       `json:"game"`
	UserBalance decimal.Decimal `json:"userBalance"`
	Settled     bool            `json:"-"`
}

// CardView is a card as the client sees it. A hidden card carries only
// Hidden=true.
type CardView struct {
	Rank   string `json:"rank,omitempty"`
	Suit   string `json:"suit,omitempty"`
	Code   string `json:"code,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

type HandView struct {
	Cards      []CardView      `json:"cards"`
	Value      int             `json:"value"`
	Soft       bool            `json:"soft"`
	Bet        decimal.Decimal `json:"bet"`
	Status     string          `json:"status"`
	Resolution string          `json:"resolution,omitempty"`
	Payout     decimal.Decimal `json:"payout"`
	Doubled    bool            `json:"doubled"`
	FromSplit  bool            `json:"fromSplit"`
}

type DealerView struct {
	Cards    []CardView `json:"cards"`
	Value    int        `json:"value"`
	Soft     bool       `json:"soft"`
	Revealed bool       `json:"revealed"`
}

type GameView struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	State           string          `json:"state"`
	PlayerHand      HandView        `json:"playerHand"`
	PlayerHands     []HandView      `json:"playerHands"`
	ActiveHandIndex int             `json:"activeHandIndex"`
	DealerHand      DealerView      `json:"dealerHand"`
	AllowedActions  []string        `json:"allowedActions"`
	InsuranceTaken  bool            `json:"insuranceTaken"`
	InsuranceBet    decimal.Decimal `json:"insuranceBet"`
	InsurancePayout decimal.Decimal `json:"insurancePayout"`
	Outcome         string          `json:"outcome,omitempty"`
	Wagered         decimal.Decimal `json:"wagered"`
	Paid            decimal.Decimal `json:"paid"`
	Net             decimal.Decimal `json:"net"`
	CreatedAt       time.Time       `json:"createdAt"`
	SettledAt       *time.Time      `json:"settledAt,omitempty"`
}

var allActions = []game.ActionType{
	game.ActionHit,
	game.ActionStand,
	game.ActionDoubleDown,
	game.ActionSplit,
	game.ActionSurrender,
	game.ActionInsurance,
}

// NewGameView projects g for its owner. The dealer's hole card stays hidden
// until the dealer has revealed it.
func NewGameView(g *game.Game, rules game.Rules) *GameView {
	v := &GameView{
		ID:              g.ID,
		UserID:          g.UserID,
		State:           string(g.State),
		ActiveHandIndex: -1,
		InsuranceTaken:  g.InsuranceTaken,
		InsuranceBet:    g.InsuranceBet,
		InsurancePayout: g.InsurancePayout,
		Outcome:         string(g.Outcome),
		Wagered:         g.Wagered,
		Paid:            g.Paid,
		Net:             g.Net(),
		CreatedAt:       g.CreatedAt,
		SettledAt:       g.SettledAt,
		PlayerHands:     make([]HandView, 0, len(g.Hands)),
		AllowedActions:  []string{},
	}
	for _, h := range g.Hands {
		v.PlayerHands = append(v.PlayerHands, handView(h))
	}
	active, idx := g.ActiveHand()
	if active != nil {
		v.ActiveHandIndex = idx
		v.PlayerHand = v.PlayerHands[idx]
		for _, a := range allActions {
			if game.ValidateAction(g, active, a, rules) == nil {
				v.AllowedActions = append(v.AllowedActions, string(a))
			}
		}
	} else if len(v.PlayerHands) > 0 {
		v.PlayerHand = v.PlayerHands[0]
	}
	v.DealerHand = dealerView(g)
	return v
}

func handView(h *game.Hand) HandView {
	total, soft := h.Value()
	return HandView{
		Cards:      cardViews(h.Cards),
		Value:      total,
		Soft:       soft,
		Bet:        h.Bet,
		Status:     string(h.Status),
		Resolution: string(h.Resolution),
		Payout:     h.Payout,
		Doubled:    h.Doubled,
		FromSplit:  h.FromSplit,
	}
}

func dealerView(g *game.Game) DealerView {
	if g.DealerRevealed || g.Settled() || len(g.Dealer.Cards) < 2 {
		total, soft := game.Value(g.Dealer.Cards)
		return DealerView{Cards: cardViews(g.Dealer.Cards), Value: total, Soft: soft, Revealed: true}
	}
	up := g.Dealer.Cards[:1]
	total, soft := game.Value(up)
	cards := append(cardViews(up), CardView{Hidden: true})
	return DealerView{Cards: cards, Value: total, Soft: soft}
}

func cardViews(cards []game.Card) []CardView {
	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardView{Rank: c.RankLabel(), Suit: c.SuitName(), Code: c.String()})
	}
	return out
}
