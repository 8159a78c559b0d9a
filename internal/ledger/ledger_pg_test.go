package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"blackjack-casino/internal/store"
	"blackjack-casino/internal/testutil"

	"github.com/shopspring/decimal"
)

func TestPostgresConcurrentDebitsNeverOverdraw(t *testing.T) {
	st := testutil.OpenTestStore(t)
	ctx := context.Background()
	l := New(st)

	id := store.NewID()
	err := st.WithTx(ctx, func(q store.Querier) error {
		return q.CreateUser(ctx, &store.User{ID: id})
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := l.Adjust(ctx, id, decimal.NewFromInt(50), "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Debit(ctx, id, decimal.RequireFromString("7.5"), KindBet, RefGame, "g")
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrInsufficientBalance) {
				t.Errorf("debit: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 6 {
		t.Fatalf("successful debits = %d, want 6", ok)
	}
	u, err := st.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !u.Balance.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("balance = %s, want 5", u.Balance)
	}
	if err := l.Verify(ctx, id); err != nil {
		t.Fatalf("verify: %v", err)
	}
	txns, err := st.ListTransactions(ctx, id, 100, 0)
	if err != nil || len(txns) != 7 {
		t.Fatalf("transactions = %d, err=%v", len(txns), err)
	}
}
