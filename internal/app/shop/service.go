package shop

import (
	"context"
	"errors"

	"blackjack-casino/internal/ledger"
	"blackjack-casino/internal/store"
	"blackjack-casino/internal/userlock"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	RefItem     = "item"
	maxQuantity = 1000
)

type PurchaseResult struct {
	Item        Item               `json:"item"`
	Quantity    int                `json:"quantity"`
	Cost        decimal.Decimal    `json:"cost"`
	Transaction *store.Transaction `json:"transaction"`
	UserBalance decimal.Decimal    `json:"userBalance"`
}

type Service struct {
	store   store.Store
	catalog Catalog
	locks   *userlock.Locks
}

func NewService(st store.Store, catalog Catalog, locks *userlock.Locks) *Service {
	return &Service{store: st, catalog: catalog, locks: locks}
}

func (s *Service) Items(ctx context.Context) ([]Item, error) {
	return s.catalog.List(ctx)
}

// Purchase prices quantity units of itemID and debits the user. Validation
// runs before the ledger is touched.
func (s *Service) Purchase(ctx context.Context, userID, itemID string, quantity int) (*PurchaseResult, error) {
	if userID == "" || itemID == "" {
		return nil, ErrInvalidRequest
	}
	if quantity <= 0 || quantity > maxQuantity {
		return nil, ErrInvalidQuantity
	}
	item, err := s.catalog.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	cost := item.Price.Mul(decimal.NewFromInt(int64(quantity)))

	unlock := s.locks.Lock(userID)
	defer unlock()

	var tr *store.Transaction
	err = s.store.WithTx(ctx, func(q store.Querier) error {
		var err error
		tr, err = ledger.Debit(ctx, q, userID, cost, ledger.KindPurchase, RefItem, item.ID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("user_id", userID).
		Str("item_id", item.ID).
		Int("quantity", quantity).
		Str("cost", cost.String()).
		Msg("purchase completed")
	return &PurchaseResult{
		Item:        item,
		Quantity:    quantity,
		Cost:        cost,
		Transaction: tr,
		UserBalance: tr.BalanceAfter,
	}, nil
}
