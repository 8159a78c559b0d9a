package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blackjack-casino/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindBet         Kind = "BET"
	KindPayout      Kind = "PAYOUT"
	KindRefund      Kind = "REFUND"
	KindAdminAdjust Kind = "ADMIN_ADJUST"
	KindPurchase    Kind = "PURCHASE"
)

const RefGame = "game"

// Scale is the number of decimal places amounts and balances are stored with.
const Scale = 4

// InScale reports whether d is representable at the ledger scale.
func InScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}

var (
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInconsistent        = errors.New("ledger_inconsistent")
)

// Debit, Credit and Adjust run inside the caller's transaction. Each locks the
// user row, checks the balance stays non-negative, writes the new balance and
// appends exactly one transaction. Amounts finer than Scale are rejected.

func Debit(ctx context.Context, q store.Querier, userID string, amount decimal.Decimal, kind Kind, refType, refID string) (*store.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return post(ctx, q, userID, amount.Neg(), kind, refType, refID, "")
}

func Credit(ctx context.Context, q store.Querier, userID string, amount decimal.Decimal, kind Kind, refType, refID string) (*store.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return post(ctx, q, userID, amount, kind, refType, refID, "")
}

// Adjust applies a signed admin correction. A negative amount is still bounded
// by the current balance.
func Adjust(ctx context.Context, q store.Querier, userID string, amount decimal.Decimal, note string) (*store.Transaction, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	return post(ctx, q, userID, amount, KindAdminAdjust, "", "", note)
}

func post(ctx context.Context, q store.Querier, userID string, delta decimal.Decimal, kind Kind, refType, refID, note string) (*store.Transaction, error) {
	if !InScale(delta) {
		return nil, ErrInvalidAmount
	}
	u, err := q.GetUserForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return nil, ErrInsufficientBalance
	}
	if err := q.UpdateBalance(ctx, userID, next); err != nil {
		return nil, err
	}
	t := &store.Transaction{
		ID:           store.NewID(),
		UserID:       userID,
		Amount:       delta,
		Kind:         string(kind),
		RefType:      refType,
		RefID:        refID,
		Note:         note,
		BalanceAfter: next,
		CreatedAt:    time.Now().UTC(),
	}
	if err := q.InsertTransaction(ctx, t); err != nil {
		return nil, err
	}
	log.Debug().
		Str("user_id", userID).
		Str("kind", string(kind)).
		Str("amount", delta.String()).
		Str("balance_after", next.String()).
		Str("ref_id", refID).
		Msg("ledger posted")
	return t, nil
}

type Ledger struct {
	Store store.Store
}

func New(s store.Store) *Ledger {
	return &Ledger{Store: s}
}

func (l *Ledger) Debit(ctx context.Context, userID string, amount decimal.Decimal, kind Kind, refType, refID string) (*store.Transaction, error) {
	var out *store.Transaction
	err := l.Store.WithTx(ctx, func(q store.Querier) error {
		var err error
		out, err = Debit(ctx, q, userID, amount, kind, refType, refID)
		return err
	})
	return out, err
}

func (l *Ledger) Credit(ctx context.Context, userID string, amount decimal.Decimal, kind Kind, refType, refID string) (*store.Transaction, error) {
	var out *store.Transaction
	err := l.Store.WithTx(ctx, func(q store.Querier) error {
		var err error
		out, err = Credit(ctx, q, userID, amount, kind, refType, refID)
		return err
	})
	return out, err
}

func (l *Ledger) Adjust(ctx context.Context, userID string, amount decimal.Decimal, note string) (*store.Transaction, error) {
	var out *store.Transaction
	err := l.Store.WithTx(ctx, func(q store.Querier) error {
		var err error
		out, err = Adjust(ctx, q, userID, amount, note)
		return err
	})
	return out, err
}

// Verify checks that the user's transactions sum to the stored balance.
func (l *Ledger) Verify(ctx context.Context, userID string) error {
	u, err := l.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	sum, err := l.Store.SumTransactions(ctx, userID)
	if err != nil {
		return err
	}
	if !sum.Equal(u.Balance) {
		return fmt.Errorf("%w: user %s balance %s, transactions sum %s", ErrInconsistent, userID, u.Balance, sum)
	}
	return nil
}

// Account binds one user to an open transaction so the game engine can move
// money without knowing about storage.
type Account struct {
	q      store.Querier
	userID string
}

func NewAccount(q store.Querier, userID string) *Account {
	return &Account{q: q, userID: userID}
}

func (a *Account) Debit(ctx context.Context, amount decimal.Decimal, kind Kind, gameID string) error {
	_, err := Debit(ctx, a.q, a.userID, amount, kind, RefGame, gameID)
	return err
}

func (a *Account) Credit(ctx context.Context, amount decimal.Decimal, kind Kind, gameID string) error {
	_, err := Credit(ctx, a.q, a.userID, amount, kind, RefGame, gameID)
	return err
}

func (a *Account) Balance(ctx context.Context) (decimal.Decimal, error) {
	u, err := a.q.GetUser(ctx, a.userID)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}
