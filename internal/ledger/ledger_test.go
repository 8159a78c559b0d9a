package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"blackjack-casino/internal/store"

	"github.com/shopspring/decimal"
)

func newLedger(t *testing.T, balance int64) (*Ledger, string) {
	t.Helper()
	st := store.NewMemory()
	l := New(st)
	ctx := context.Background()
	err := st.WithTx(ctx, func(q store.Querier) error {
		return q.CreateUser(ctx, &store.User{ID: "u1"})
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if balance > 0 {
		if _, err := l.Adjust(ctx, "u1", decimal.NewFromInt(balance), "seed"); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	return l, "u1"
}

func balanceOf(t *testing.T, l *Ledger, userID string) decimal.Decimal {
	t.Helper()
	u, err := l.Store.GetUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u.Balance
}

func TestDebitRecordsOneTransaction(t *testing.T) {
	l, id := newLedger(t, 100)
	ctx := context.Background()

	tr, err := l.Debit(ctx, id, decimal.NewFromInt(10), KindBet, RefGame, "g1")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !tr.Amount.Equal(decimal.NewFromInt(-10)) || !tr.BalanceAfter.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("unexpected transaction %+v", tr)
	}
	if tr.Kind != string(KindBet) || tr.RefID != "g1" {
		t.Fatalf("unexpected kind/ref %+v", tr)
	}
	if !balanceOf(t, l, id).Equal(decimal.NewFromInt(90)) {
		t.Fatalf("balance = %s", balanceOf(t, l, id))
	}
	if err := l.Verify(ctx, id); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestDebitRejectsOverdraft(t *testing.T) {
	l, id := newLedger(t, 10)
	ctx := context.Background()

	if _, err := l.Debit(ctx, id, decimal.NewFromInt(11), KindPurchase, "item", "x"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraft err = %v", err)
	}
	txns, _ := l.Store.ListTransactions(ctx, id, 10, 0)
	if len(txns) != 1 {
		t.Fatalf("expected only the seed transaction, got %d", len(txns))
	}
	if !balanceOf(t, l, id).Equal(decimal.NewFromInt(10)) {
		t.Fatalf("balance changed after rejected debit")
	}
}

func TestAmountsMustBePositive(t *testing.T) {
	l, id := newLedger(t, 10)
	ctx := context.Background()
	for _, amt := range []int64{0, -3} {
		if _, err := l.Debit(ctx, id, decimal.NewFromInt(amt), KindBet, "", ""); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("debit %d err = %v", amt, err)
		}
		if _, err := l.Credit(ctx, id, decimal.NewFromInt(amt), KindPayout, "", ""); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("credit %d err = %v", amt, err)
		}
	}
	if _, err := l.Adjust(ctx, id, decimal.Zero, "noop"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero adjust err = %v", err)
	}
}

func TestAmountsFinerThanScaleRejected(t *testing.T) {
	l, id := newLedger(t, 10)
	ctx := context.Background()
	fine := decimal.RequireFromString("0.00005")
	if _, err := l.Debit(ctx, id, fine, KindBet, RefGame, "g1"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("debit err = %v", err)
	}
	if _, err := l.Credit(ctx, id, decimal.RequireFromString("5.00005"), KindRefund, RefGame, "g1"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("credit err = %v", err)
	}
	if _, err := l.Adjust(ctx, id, fine.Neg(), "trim"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("adjust err = %v", err)
	}
	if _, err := l.Debit(ctx, id, decimal.RequireFromString("2.5000"), KindBet, RefGame, "g1"); err != nil {
		t.Fatalf("four-place debit: %v", err)
	}
	if !balanceOf(t, l, id).Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("balance = %s", balanceOf(t, l, id))
	}
	if err := l.Verify(ctx, id); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestAdjustNegativeBoundedByBalance(t *testing.T) {
	l, id := newLedger(t, 50)
	ctx := context.Background()

	if _, err := l.Adjust(ctx, id, decimal.NewFromInt(-60), "clawback"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("negative adjust past zero err = %v", err)
	}
	tr, err := l.Adjust(ctx, id, decimal.NewFromInt(-50), "clawback")
	if err != nil {
		t.Fatalf("adjust to zero: %v", err)
	}
	if tr.Kind != string(KindAdminAdjust) || tr.Note != "clawback" || !tr.BalanceAfter.IsZero() {
		t.Fatalf("unexpected adjust transaction %+v", tr)
	}
	if err := l.Verify(ctx, id); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestUnknownUser(t *testing.T) {
	l, _ := newLedger(t, 0)
	if _, err := l.Credit(context.Background(), "nobody", decimal.NewFromInt(1), KindPayout, "", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("credit unknown user err = %v", err)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	l, id := newLedger(t, 100)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Debit(ctx, id, decimal.NewFromInt(7), KindBet, RefGame, "g")
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

	if ok != 14 {
		t.Fatalf("successful debits = %d, want 14", ok)
	}
	if !balanceOf(t, l, id).Equal(decimal.NewFromInt(2)) {
		t.Fatalf("balance = %s, want 2", balanceOf(t, l, id))
	}
	if err := l.Verify(ctx, id); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestAccountWritesInsideCallerTx(t *testing.T) {
	l, id := newLedger(t, 100)
	ctx := context.Background()

	boom := errors.New("boom")
	err := l.Store.WithTx(ctx, func(q store.Querier) error {
		acct := NewAccount(q, id)
		if err := acct.Debit(ctx, decimal.NewFromInt(30), KindBet, "g1"); err != nil {
			return err
		}
		bal, err := acct.Balance(ctx)
		if err != nil {
			return err
		}
		if !bal.Equal(decimal.NewFromInt(70)) {
			t.Fatalf("in-tx balance = %s", bal)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("tx err = %v", err)
	}
	if !balanceOf(t, l, id).Equal(decimal.NewFromInt(100)) {
		t.Fatalf("rolled back debit still applied: %s", balanceOf(t, l, id))
	}
}
