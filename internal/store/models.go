package store

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	ID            string          `json:"id"`
	WalletAddress string          `json:"walletAddress"`
	Balance       decimal.Decimal `json:"balance"`
	IsDemo        bool            `json:"isDemo"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Transaction is one immutable ledger row. Amount is signed; RefType "game"
// makes RefID the related game id.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         string          `json:"type"`
	RefType      string          `json:"refType,omitempty"`
	RefID        string          `json:"refId,omitempty"`
	Note         string          `json:"note,omitempty"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// GameRecord persists a game as an opaque JSON payload plus the columns the
// read side filters on.
type GameRecord struct {
	ID        string
	UserID    string
	State     string
	Outcome   string
	Wagered   decimal.Decimal
	Paid      decimal.Decimal
	Payload   []byte
	CreatedAt time.Time
	SettledAt *time.Time
}

const GameStateSettled = "SETTLED"
