// Package app wires the domain services over one store.
package app

import (
	"blackjack-casino/internal/app/account"
	"blackjack-casino/internal/app/history"
	"blackjack-casino/internal/app/play"
	"blackjack-casino/internal/app/shop"
	"blackjack-casino/internal/auth"
	"blackjack-casino/internal/config"
	"blackjack-casino/internal/game"
	"blackjack-casino/internal/ledger"
	"blackjack-casino/internal/store"
	"blackjack-casino/internal/userlock"
)

type Services struct {
	Store   store.Store
	Ledger  *ledger.Ledger
	Play    *play.Service
	History *history.Service
	Account *account.Service
	Shop    *shop.Service
	Tokens  *auth.TokenService

	RequireAuth bool
}

// NewServices builds every service from cfg. All balance-mutating services
// share one lock table so a user's requests serialize across them.
func NewServices(st store.Store, cfg config.ServerConfig, catalog shop.Catalog) *Services {
	return NewServicesWithEngine(st, cfg, catalog, game.NewEngine(game.Rules{
		DoubleAfterSplit: cfg.DoubleAfterSplit,
		SplitAcesOneCard: cfg.SplitAcesOneCard,
	}))
}

func NewServicesWithEngine(st store.Store, cfg config.ServerConfig, catalog shop.Catalog, engine *game.Engine) *Services {
	if catalog == nil {
		catalog = shop.DefaultCatalog()
	}
	locks := userlock.New()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	hist := history.NewService(st, cfg.HistorySessionGap)
	demo := cfg.DemoWallet
	if addr, err := auth.NormalizeAddress(demo); err == nil {
		demo = addr
	}
	return &Services{
		Store:   st,
		Ledger:  ledger.New(st),
		Play:    play.NewService(st, engine, locks),
		History: hist,
		Account: account.NewService(st, locks, hist, auth.DemoVerifier{}, tokens, account.Config{
			InitialBalance: cfg.InitialBalance,
			DemoWallet:     demo,
		}),
		Shop:        shop.NewService(st, catalog, locks),
		Tokens:      tokens,
		RequireAuth: cfg.RequireAuth,
	}
}
