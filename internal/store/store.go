package store

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrActiveGameExists = errors.New("active game exists")
)

// Reader holds the queries that need no row locks.
type Reader interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByWallet(ctx context.Context, address string) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)

	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error)
	SumTransactions(ctx context.Context, userID string) (decimal.Decimal, error)

	GetGame(ctx context.Context, id string) (*GameRecord, error)
	GetActiveGame(ctx context.Context, userID string) (*GameRecord, error)
	ListSettledGames(ctx context.Context, userID string) ([]GameRecord, error)
}

// Querier is the view handed to a transaction body. GetUserForUpdate holds
// the user's row until the transaction ends.
type Querier interface {
	Reader
	CreateUser(ctx context.Context, u *User) error
	GetUserForUpdate(ctx context.Context, id string) (*User, error)
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	InsertTransaction(ctx context.Context, t *Transaction) error
	SaveGame(ctx context.Context, g *GameRecord) error
}

// Store is implemented by PGStore and MemStore. WithTx commits when fn
// returns nil and rolls back otherwise.
type Store interface {
	Reader
	WithTx(ctx context.Context, fn func(q Querier) error) error
	Ping(ctx context.Context) error
	Close()
}

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	ulidEntropyMu sync.Mutex
)

func NewID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}
