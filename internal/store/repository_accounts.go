package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, COALESCE(wallet_address, ''), balance::text, is_demo, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var bal string
	if err := row.Scan(&u.ID, &u.WalletAddress, &bal, &u.IsDemo, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	amount, err := parseAmount(bal)
	if err != nil {
		return nil, err
	}
	u.Balance = amount
	return &u, nil
}

func (q *queries) CreateUser(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt
	_, err := q.db.Exec(ctx,
		`INSERT INTO users (id, wallet_address, balance, is_demo, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, textParam(u.WalletAddress), u.Balance.String(), u.IsDemo, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (q *queries) GetUser(ctx context.Context, id string) (*User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (q *queries) GetUserForUpdate(ctx context.Context, id string) (*User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (q *queries) GetUserByWallet(ctx context.Context, address string) (*User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address = $1`, address))
}

func (q *queries) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (q *queries) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (q *queries) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE users SET balance = $2, updated_at = now() WHERE id = $1`,
		id, balance.String(),
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
