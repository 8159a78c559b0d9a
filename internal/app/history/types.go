package history

import (
	"time"

	"github.com/shopspring/decimal"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterWin       Filter = "win"
	FilterLose      Filter = "lose"
	FilterPush      Filter = "push"
	FilterBlackjack Filter = "blackjack"
)

const (
	DefaultLimit      = 20
	MaxLimit          = 100
	DefaultSessionGap = 30 * time.Minute
)

type Query struct {
	UserID string
	Result Filter
	Page   int
	Limit  int
}

type Response struct {
	Games        []GameSummary `json:"games"`
	Sessions     []Session     `json:"sessions"`
	OverallStats Stats         `json:"overallStats"`
	Pagination   Pagination    `json:"pagination"`
}

type GameSummary struct {
	ID             string          `json:"id"`
	Outcome        string          `json:"outcome"`
	Wagered        decimal.Decimal `json:"wagered"`
	Payout         decimal.Decimal `json:"payout"`
	Net            decimal.Decimal `json:"net"`
	HandCount      int             `json:"handCount"`
	PlayerValues   []int           `json:"playerValues"`
	DealerValue    int             `json:"dealerValue"`
	InsuranceTaken bool            `json:"insuranceTaken"`
	CreatedAt      time.Time       `json:"createdAt"`
	SettledAt      *time.Time      `json:"settledAt,omitempty"`
}

type Session struct {
	Index      int             `json:"index"`
	StartedAt  time.Time       `json:"startedAt"`
	EndedAt    time.Time       `json:"endedAt"`
	Games      int             `json:"games"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	Pushes     int             `json:"pushes"`
	Blackjacks int             `json:"blackjacks"`
	Wagered    decimal.Decimal `json:"wagered"`
	Payout     decimal.Decimal `json:"payout"`
	Net        decimal.Decimal `json:"net"`
}

type Stats struct {
	TotalGames   int             `json:"totalGames"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	Pushes       int             `json:"pushes"`
	Blackjacks   int             `json:"blackjacks"`
	TotalWagered decimal.Decimal `json:"totalWagered"`
	TotalPayout  decimal.Decimal `json:"totalPayout"`
	NetDelta     decimal.Decimal `json:"netDelta"`
	WinRate      float64         `json:"winRate"`
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}
