package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const gameColumns = `id, user_id, state, outcome, wagered::text, paid::text, payload, created_at, settled_at`

func scanGame(row pgx.Row) (*GameRecord, error) {
	var g GameRecord
	var wagered, paid string
	if err := row.Scan(&g.ID, &g.UserID, &g.State, &g.Outcome, &wagered, &paid, &g.Payload, &g.CreatedAt, &g.SettledAt); err != nil {
		return nil, mapNotFound(err)
	}
	var err error
	if g.Wagered, err = parseAmount(wagered); err != nil {
		return nil, err
	}
	if g.Paid, err = parseAmount(paid); err != nil {
		return nil, err
	}
	return &g, nil
}

// SaveGame upserts by id. A second unsettled game for the same user violates
// games_one_active_per_user and maps to ErrActiveGameExists.
func (q *queries) SaveGame(ctx context.Context, g *GameRecord) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO games (id, user_id, state, outcome, wagered, paid, payload, created_at, updated_at, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),$9)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			outcome = EXCLUDED.outcome,
			wagered = EXCLUDED.wagered,
			paid = EXCLUDED.paid,
			payload = EXCLUDED.payload,
			updated_at = now(),
			settled_at = EXCLUDED.settled_at`,
		g.ID, g.UserID, g.State, g.Outcome, g.Wagered.String(), g.Paid.String(), g.Payload, g.CreatedAt, g.SettledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrActiveGameExists
		}
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

func (q *queries) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	return scanGame(q.db.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
}

func (q *queries) GetActiveGame(ctx context.Context, userID string) (*GameRecord, error) {
	return scanGame(q.db.QueryRow(ctx,
		`SELECT `+gameColumns+` FROM games WHERE user_id = $1 AND state <> 'SETTLED' LIMIT 1`,
		userID,
	))
}

// ListSettledGames returns newest first.
func (q *queries) ListSettledGames(ctx context.Context, userID string) ([]GameRecord, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+gameColumns+` FROM games WHERE user_id = $1 AND state = 'SETTLED'
		ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list settled games: %w", err)
	}
	defer rows.Close()
	out := []GameRecord{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}
