package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blackjack-casino/internal/app/history"
	"blackjack-casino/internal/auth"
	"blackjack-casino/internal/ledger"
	"blackjack-casino/internal/store"
	"blackjack-casino/internal/userlock"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	noteInitialBalance = "initial balance"
	noteBalanceSet     = "balance set"
	defaultAdjustNote  = "ADMIN_ADJUST"
	demoSignature      = "demo"
)

type Config struct {
	InitialBalance decimal.Decimal
	DemoWallet     string
	DemoWallets    []string
}

type Service struct {
	store    store.Store
	locks    *userlock.Locks
	history  *history.Service
	verifier auth.Verifier
	tokens   *auth.TokenService
	cfg      Config
}

func NewService(st store.Store, locks *userlock.Locks, hist *history.Service, verifier auth.Verifier, tokens *auth.TokenService, cfg Config) *Service {
	return &Service{store: st, locks: locks, history: hist, verifier: verifier, tokens: tokens, cfg: cfg}
}

// Login verifies the wallet signature, creates the user on first sight and
// issues a session token.
func (s *Service) Login(ctx context.Context, address, signature string) (*LoginResponse, error) {
	addr, err := auth.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.Verify(ctx, addr, signature); err != nil {
		return nil, err
	}
	u, err := s.getOrCreate(ctx, addr, addr == s.cfg.DemoWallet)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, u)
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", u.ID).Str("wallet", addr).Msg("wallet login")
	return &LoginResponse{Success: true, UserView: *view, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) DemoWallets() *DemoWalletsResponse {
	addrs := s.cfg.DemoWallets
	if len(addrs) == 0 && s.cfg.DemoWallet != "" {
		addrs = []string{s.cfg.DemoWallet}
	}
	out := make([]DemoWallet, 0, len(addrs))
	for i, a := range addrs {
		out = append(out, DemoWallet{Address: a, Label: fmt.Sprintf("Demo wallet %d", i+1), Signature: demoSignature})
	}
	return &DemoWalletsResponse{Success: true, Wallets: out}
}

// Current returns userID, or the demo user when userID is empty.
func (s *Service) Current(ctx context.Context, userID string) (*UserView, error) {
	u, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, u)
}

// SetBalance moves the balance to target through one ADMIN_ADJUST of the
// difference, so the ledger still sums to the balance.
func (s *Service) SetBalance(ctx context.Context, userID string, target decimal.Decimal) (*UserView, error) {
	if target.IsNegative() {
		return nil, ledger.ErrInvalidAmount
	}
	u, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(u.ID)
	defer unlock()

	err = s.store.WithTx(ctx, func(q store.Querier) error {
		cur, err := q.GetUserForUpdate(ctx, u.ID)
		if err != nil {
			return err
		}
		diff := target.Sub(cur.Balance)
		if diff.IsZero() {
			return nil
		}
		_, err = ledger.Adjust(ctx, q, u.ID, diff, noteBalanceSet)
		return err
	})
	if err != nil {
		return nil, mapUserErr(err)
	}
	return s.Current(ctx, u.ID)
}

func (s *Service) Detail(ctx context.Context, userID string, limit, offset int) (*UserDetail, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	txns, err := s.store.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, u)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []store.Transaction{}
	}
	return &UserDetail{Success: true, UserView: *view, Transactions: txns, Limit: limit, Offset: offset}, nil
}

// Adjust applies a signed admin correction. label is kept as the
// transaction note.
func (s *Service) Adjust(ctx context.Context, userID string, amount decimal.Decimal, label string) (*AdjustResponse, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	if label == "" {
		label = defaultAdjustNote
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	var tr *store.Transaction
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		var err error
		tr, err = ledger.Adjust(ctx, q, userID, amount, label)
		return err
	})
	if err != nil {
		return nil, mapUserErr(err)
	}
	log.Info().
		Str("user_id", userID).
		Str("amount", amount.String()).
		Str("label", label).
		Msg("admin balance adjustment")
	return &AdjustResponse{Success: true, Transaction: tr, UserBalance: tr.BalanceAfter}, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) (*UsersResponse, error) {
	total, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []store.User{}
	}
	return &UsersResponse{Success: true, Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) resolve(ctx context.Context, userID string) (*store.User, error) {
	if userID == "" {
		if s.cfg.DemoWallet == "" {
			return nil, ErrUnauthorized
		}
		return s.getOrCreate(ctx, s.cfg.DemoWallet, true)
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return u, nil
}

// getOrCreate finds the user owning address or creates one funded with the
// initial balance.
func (s *Service) getOrCreate(ctx context.Context, address string, demo bool) (*store.User, error) {
	if u, err := s.store.GetUserByWallet(ctx, address); err == nil {
		return u, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	unlock := s.locks.Lock("wallet:" + address)
	defer unlock()

	var out *store.User
	created := false
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		if u, err := q.GetUserByWallet(ctx, address); err == nil {
			out = u
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		now := time.Now().UTC()
		u := &store.User{
			ID:            store.NewID(),
			WalletAddress: address,
			IsDemo:        demo,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := q.CreateUser(ctx, u); err != nil {
			return err
		}
		if s.cfg.InitialBalance.IsPositive() {
			if _, err := ledger.Adjust(ctx, q, u.ID, s.cfg.InitialBalance, noteInitialBalance); err != nil {
				return err
			}
			u.Balance = s.cfg.InitialBalance
		}
		out = u
		created = true
		return nil
	})
	if errors.Is(err, store.ErrConflict) {
		// another instance created it first
		return s.store.GetUserByWallet(ctx, address)
	}
	if err != nil {
		return nil, err
	}
	if created {
		log.Info().Str("user_id", out.ID).Str("wallet", address).Bool("demo", demo).Msg("user created")
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, u *store.User) (*UserView, error) {
	stats, err := s.history.Stats(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	v := newUserView(u, stats)
	return &v, nil
}

func mapUserErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
