package account

import (
	"time"

	"blackjack-casino/internal/app/history"
	"blackjack-casino/internal/store"

	"github.com/shopspring/decimal"
)

// UserView is the one user shape every endpoint returns: the flat fields,
// the same object under user, and the user's game stats.
type UserView struct {
	ID            string          `json:"id"`
	WalletAddress string          `json:"walletAddress"`
	Balance       decimal.Decimal `json:"balance"`
	IsDemo        bool            `json:"isDemo"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	User          store.User      `json:"user"`
	Stats         history.Stats   `json:"stats"`
}

func newUserView(u *store.User, stats history.Stats) UserView {
	return UserView{
		ID:            u.ID,
		WalletAddress: u.WalletAddress,
		Balance:       u.Balance,
		IsDemo:        u.IsDemo,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		User:          *u,
		Stats:         stats,
	}
}

type LoginResponse struct {
	Success bool `json:"success"`
	UserView
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type DemoWallet struct {
	Address   string `json:"walletAddress"`
	Label     string `json:"label"`
	Signature string `json:"signature"`
}

type DemoWalletsResponse struct {
	Success bool         `json:"success"`
	Wallets []DemoWallet `json:"wallets"`
}

type UserDetail struct {
	Success bool `json:"success"`
	UserView
	Transactions []store.Transaction `json:"transactions"`
	Limit        int                 `json:"limit"`
	Offset       int                 `json:"offset"`
}

type AdjustResponse struct {
	Success     bool               `json:"success"`
	Transaction *store.Transaction `json:"transaction"`
	UserBalance decimal.Decimal    `json:"userBalance"`
}

type UsersResponse struct {
	Success bool         `json:"success"`
	Users   []store.User `json:"users"`
	Total   int          `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}
