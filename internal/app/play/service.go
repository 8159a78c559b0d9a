package play

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"blackjack-casino/internal/game"
	"blackjack-casino/internal/ledger"
	"blackjack-casino/internal/store"
	"blackjack-casino/internal/userlock"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Service runs deal and action requests. Each request holds the user's lock
// and one store transaction, so the game write and its ledger rows commit or
// roll back together.
type Service struct {
	store  store.Store
	engine *game.Engine
	locks  *userlock.Locks
}

func NewService(st store.Store, engine *game.Engine, locks *userlock.Locks) *Service {
	return &Service{store: st, engine: engine, locks: locks}
}

func (s *Service) Rules() game.Rules {
	return s.engine.Rules
}

func (s *Service) Deal(ctx context.Context, userID string, bet decimal.Decimal) (*Result, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	var out *Result
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return mapUserErr(err)
		}
		if _, err := q.GetActiveGame(ctx, userID); err == nil {
			return ErrActiveGame
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		g := s.engine.NewGame(store.NewID(), userID)
		if err := s.engine.Deal(ctx, ledger.NewAccount(q, userID), g, bet); err != nil {
			return err
		}
		res, err := s.persist(ctx, q, g)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("user_id", userID).
		Str("game_id", out.Game.ID).
		Str("bet", bet.String()).
		Str("state", out.Game.State).
		Msg("game dealt")
	s.logSettled(out)
	return out, nil
}

func (s *Service) Act(ctx context.Context, userID, gameID, rawAction string) (*Result, error) {
	if userID == "" || gameID == "" {
		return nil, ErrInvalidRequest
	}
	action, err := game.ParseAction(rawAction)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	var out *Result
	err = s.store.WithTx(ctx, func(q store.Querier) error {
		g, err := s.load(ctx, q, userID, gameID)
		if err != nil {
			return err
		}
		if err := s.engine.Apply(ctx, ledger.NewAccount(q, userID), g, action); err != nil {
			return err
		}
		res, err := s.persist(ctx, q, g)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("user_id", userID).
		Str("game_id", gameID).
		Str("action", string(action)).
		Str("state", out.Game.State).
		Msg("game action applied")
	s.logSettled(out)
	return out, nil
}

// Get returns a game owned by userID.
func (s *Service) Get(ctx context.Context, userID, gameID string) (*GameView, error) {
	if userID == "" || gameID == "" {
		return nil, ErrInvalidRequest
	}
	g, err := s.load(ctx, s.store, userID, gameID)
	if err != nil {
		return nil, err
	}
	return NewGameView(g, s.engine.Rules), nil
}

// Active returns the user's unsettled game, or ErrGameNotFound.
func (s *Service) Active(ctx context.Context, userID string) (*GameView, error) {
	rec, err := s.store.GetActiveGame(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	g, err := Decode(rec)
	if err != nil {
		return nil, err
	}
	return NewGameView(g, s.engine.Rules), nil
}

func (s *Service) load(ctx context.Context, r store.Reader, userID, gameID string) (*game.Game, error) {
	rec, err := r.GetGame(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, ErrForbidden
	}
	return Decode(rec)
}

func (s *Service) persist(ctx context.Context, q store.Querier, g *game.Game) (*Result, error) {
	rec, err := Encode(g)
	if err != nil {
		return nil, err
	}
	if err := q.SaveGame(ctx, rec); err != nil {
		if errors.Is(err, store.ErrActiveGameExists) {
			return nil, ErrActiveGame
		}
		return nil, err
	}
	u, err := q.GetUser(ctx, g.UserID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return &Result{
		Game:        NewGameView(g, s.engine.Rules),
		UserBalance: u.Balance,
		Settled:     g.Settled(),
	}, nil
}

func (s *Service) logSettled(res *Result) {
	if !res.Settled {
		return
	}
	log.Info().
		Str("user_id", res.Game.UserID).
		Str("game_id", res.Game.ID).
		Str("outcome", res.Game.Outcome).
		Str("wagered", res.Game.Wagered.String()).
		Str("paid", res.Game.Paid.String()).
		Msg("game settled")
}

// Encode flattens g into the row the store persists.
func Encode(g *game.Game) (*store.GameRecord, error) {
	payload, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	return &store.GameRecord{
		ID:        g.ID,
		UserID:    g.UserID,
		State:     string(g.State),
		Outcome:   string(g.Outcome),
		Wagered:   g.Wagered,
		Paid:      g.Paid,
		Payload:   payload,
		CreatedAt: g.CreatedAt,
		SettledAt: g.SettledAt,
	}, nil
}

func Decode(rec *store.GameRecord) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(rec.Payload, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", rec.ID, err)
	}
	return &g, nil
}

func mapUserErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
