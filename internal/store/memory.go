package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemStore keeps everything in process. Transactions stage their writes and
// apply them on commit; GetUserForUpdate takes a per-user row lock that is
// held until the transaction ends, like SELECT ... FOR UPDATE.
type MemStore struct {
	mu      sync.RWMutex
	users   map[string]User
	wallets map[string]string
	txns    map[string][]Transaction
	games   map[string]GameRecord

	lockMu   sync.Mutex
	rowLocks map[string]*sync.Mutex
}

func NewMemory() *MemStore {
	return &MemStore{
		users:    map[string]User{},
		wallets:  map[string]string{},
		txns:     map[string][]Transaction{},
		games:    map[string]GameRecord{},
		rowLocks: map[string]*sync.Mutex{},
	}
}

func (s *MemStore) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx := &memTx{
		s:     s,
		users: map[string]User{},
		games: map[string]GameRecord{},
	}
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Close() {}

func (s *MemStore) reader() *memTx { return &memTx{s: s} }

func (s *MemStore) GetUser(ctx context.Context, id string) (*User, error) {
	return s.reader().GetUser(ctx, id)
}

func (s *MemStore) GetUserByWallet(ctx context.Context, address string) (*User, error) {
	return s.reader().GetUserByWallet(ctx, address)
}

func (s *MemStore) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	return s.reader().ListUsers(ctx, limit, offset)
}

func (s *MemStore) CountUsers(ctx context.Context) (int, error) {
	return s.reader().CountUsers(ctx)
}

func (s *MemStore) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error) {
	return s.reader().ListTransactions(ctx, userID, limit, offset)
}

func (s *MemStore) SumTransactions(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.reader().SumTransactions(ctx, userID)
}

func (s *MemStore) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	return s.reader().GetGame(ctx, id)
}

func (s *MemStore) GetActiveGame(ctx context.Context, userID string) (*GameRecord, error) {
	return s.reader().GetActiveGame(ctx, userID)
}

func (s *MemStore) ListSettledGames(ctx context.Context, userID string) ([]GameRecord, error) {
	return s.reader().ListSettledGames(ctx, userID)
}

func (s *MemStore) rowLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.rowLocks[id]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[id] = m
	}
	return m
}

type memTx struct {
	s      *MemStore
	users  map[string]User
	txns   []Transaction
	games  map[string]GameRecord
	locked []*sync.Mutex
	held   map[string]bool
	dirty  bool
}

func (t *memTx) release() {
	for i := len(t.locked) - 1; i >= 0; i-- {
		t.locked[i].Unlock()
	}
	t.locked = nil
}

func (t *memTx) commit() {
	if !t.dirty {
		return
	}
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range t.users {
		if prev, ok := s.users[id]; ok && prev.WalletAddress != "" && prev.WalletAddress != u.WalletAddress {
			delete(s.wallets, prev.WalletAddress)
		}
		s.users[id] = u
		if u.WalletAddress != "" {
			s.wallets[u.WalletAddress] = id
		}
	}
	for _, tr := range t.txns {
		s.txns[tr.UserID] = append(s.txns[tr.UserID], tr)
	}
	for id, g := range t.games {
		s.games[id] = g
	}
}

func (t *memTx) lookupUser(id string) (User, bool) {
	if u, ok := t.users[id]; ok {
		return u, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	u, ok := t.s.users[id]
	return u, ok
}

func (t *memTx) GetUser(_ context.Context, id string) (*User, error) {
	u, ok := t.lookupUser(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (t *memTx) GetUserForUpdate(ctx context.Context, id string) (*User, error) {
	if t.held == nil {
		t.held = map[string]bool{}
	}
	if !t.held[id] {
		m := t.s.rowLock(id)
		m.Lock()
		t.locked = append(t.locked, m)
		t.held[id] = true
	}
	return t.GetUser(ctx, id)
}

func (t *memTx) GetUserByWallet(ctx context.Context, address string) (*User, error) {
	for _, u := range t.users {
		if u.WalletAddress == address {
			return &u, nil
		}
	}
	t.s.mu.RLock()
	id, ok := t.s.wallets[address]
	t.s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return t.GetUser(ctx, id)
}

func (t *memTx) allUsers() []User {
	t.s.mu.RLock()
	out := make([]User, 0, len(t.s.users)+len(t.users))
	for id, u := range t.s.users {
		if _, staged := t.users[id]; !staged {
			out = append(out, u)
		}
	}
	t.s.mu.RUnlock()
	for _, u := range t.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (t *memTx) ListUsers(_ context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 50
	}
	return window(t.allUsers(), limit, offset), nil
}

func (t *memTx) CountUsers(context.Context) (int, error) {
	return len(t.allUsers()), nil
}

func (t *memTx) CreateUser(ctx context.Context, u *User) error {
	if _, ok := t.lookupUser(u.ID); ok {
		return ErrConflict
	}
	if u.WalletAddress != "" {
		if _, err := t.GetUserByWallet(ctx, u.WalletAddress); err == nil {
			return ErrConflict
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	t.users[u.ID] = *u
	t.dirty = true
	return nil
}

func (t *memTx) UpdateBalance(_ context.Context, id string, balance decimal.Decimal) error {
	u, ok := t.lookupUser(id)
	if !ok {
		return ErrNotFound
	}
	u.Balance = balance
	u.UpdatedAt = time.Now().UTC()
	t.users[id] = u
	t.dirty = true
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, tr *Transaction) error {
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = time.Now().UTC()
	}
	t.txns = append(t.txns, *tr)
	t.dirty = true
	return nil
}

func (t *memTx) userTransactions(userID string) []Transaction {
	t.s.mu.RLock()
	base := t.s.txns[userID]
	out := make([]Transaction, 0, len(base)+len(t.txns))
	out = append(out, base...)
	t.s.mu.RUnlock()
	for _, tr := range t.txns {
		if tr.UserID == userID {
			out = append(out, tr)
		}
	}
	return out
}

func (t *memTx) ListTransactions(_ context.Context, userID string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	all := t.userTransactions(userID)
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return window(all, limit, offset), nil
}

func (t *memTx) SumTransactions(_ context.Context, userID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, tr := range t.userTransactions(userID) {
		sum = sum.Add(tr.Amount)
	}
	return sum, nil
}

func (t *memTx) allGames() []GameRecord {
	t.s.mu.RLock()
	out := make([]GameRecord, 0, len(t.s.games)+len(t.games))
	for id, g := range t.s.games {
		if _, staged := t.games[id]; !staged {
			out = append(out, g)
		}
	}
	t.s.mu.RUnlock()
	for _, g := range t.games {
		out = append(out, g)
	}
	return out
}

func (t *memTx) GetGame(_ context.Context, id string) (*GameRecord, error) {
	if g, ok := t.games[id]; ok {
		return copyGame(g), nil
	}
	t.s.mu.RLock()
	g, ok := t.s.games[id]
	t.s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return copyGame(g), nil
}

func (t *memTx) GetActiveGame(_ context.Context, userID string) (*GameRecord, error) {
	for _, g := range t.allGames() {
		if g.UserID == userID && g.State != GameStateSettled {
			return copyGame(g), nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) SaveGame(ctx context.Context, g *GameRecord) error {
	if g.State != GameStateSettled {
		active, err := t.GetActiveGame(ctx, g.UserID)
		if err == nil && active.ID != g.ID {
			return ErrActiveGameExists
		}
	}
	t.games[g.ID] = *copyGame(*g)
	t.dirty = true
	return nil
}

func (t *memTx) ListSettledGames(_ context.Context, userID string) ([]GameRecord, error) {
	out := []GameRecord{}
	for _, g := range t.allGames() {
		if g.UserID == userID && g.State == GameStateSettled {
			out = append(out, *copyGame(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func copyGame(g GameRecord) *GameRecord {
	g.Payload = append([]byte(nil), g.Payload...)
	if g.SettledAt != nil {
		at := *g.SettledAt
		g.SettledAt = &at
	}
	return &g
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

var _ Store = (*MemStore)(nil)
