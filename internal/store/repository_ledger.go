package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, user_id, amount::text, kind, ref_type, ref_id, note, balance_after::text, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	var amount, after string
	if err := row.Scan(&t.ID, &t.UserID, &amount, &t.Kind, &t.RefType, &t.RefID, &t.Note, &after, &t.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	var err error
	if t.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	if t.BalanceAfter, err = parseAmount(after); err != nil {
		return nil, err
	}
	return &t, nil
}

func (q *queries) InsertTransaction(ctx context.Context, t *Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, kind, ref_type, ref_id, note, balance_after, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.UserID, t.Amount.String(), t.Kind, t.RefType, t.RefID, t.Note, t.BalanceAfter.String(), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns newest first.
func (q *queries) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (q *queries) SumTransactions(ctx context.Context, userID string) (decimal.Decimal, error) {
	var raw string
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::text FROM transactions WHERE user_id = $1`,
		userID,
	).Scan(&raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	return parseAmount(raw)
}
