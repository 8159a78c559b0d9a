package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"blackjack-casino/internal/app/play"
	"blackjack-casino/internal/config"
	"blackjack-casino/internal/game"
	"blackjack-casino/internal/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type gameResponse struct {
	Success     bool            `json:"success"`
	Game        *play.GameView  `json:"game"`
	UserBalance decimal.Decimal `json:"userBalance"`
	Error       string          `json:"error"`
	Message     string          `json:"message"`
}

type client struct {
	baseURL string
	userID  string
	token   string
	http    *http.Client
}

func main() {
	_ = godotenv.Load()
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	c := &client{baseURL: cfg.BaseURL, userID: cfg.UserID, token: cfg.Token, http: &http.Client{Timeout: 10 * time.Second}}
	ctx := context.Background()
	if c.userID == "" && c.token == "" {
		var user struct {
			ID string `json:"id"`
		}
		if err := c.do(ctx, http.MethodGet, "/api/user", nil, &user); err != nil {
			log.Fatal().Err(err).Msg("resolve demo user failed")
		}
		c.userID = user.ID
	}

	var net decimal.Decimal
	for i := 0; i < cfg.Hands; i++ {
		res, err := c.playHand(ctx, cfg.Bet)
		if err != nil {
			log.Fatal().Err(err).Int("hand", i+1).Msg("hand failed")
		}
		net = net.Add(res.Game.Net)
		log.Info().
			Int("hand", i+1).
			Str("game_id", res.Game.ID).
			Str("outcome", res.Game.Outcome).
			Str("net", res.Game.Net.String()).
			Str("balance", res.UserBalance.String()).
			Msg("hand settled")
	}
	log.Info().Int("hands", cfg.Hands).Str("net", net.String()).Msg("bot finished")
}

func (c *client) playHand(ctx context.Context, bet decimal.Decimal) (*gameResponse, error) {
	var res gameResponse
	if err := c.do(ctx, http.MethodPost, "/api/game/play", map[string]any{
		"userId": c.userID, "betAmount": bet, "moveType": "deal",
	}, &res); err != nil {
		return nil, err
	}
	for res.Game.State != string(game.StateSettled) {
		action := decide(res.Game)
		log.Debug().Str("game_id", res.Game.ID).Str("action", action).Msg("bot action")
		next := gameResponse{}
		if err := c.do(ctx, http.MethodPost, "/api/game/action", map[string]any{
			"userId": c.userID, "gameId": res.Game.ID, "action": action,
		}, &next); err != nil {
			return nil, err
		}
		res = next
	}
	return &res, nil
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: %d %s: %s", method, path, resp.StatusCode, e.Error, e.Message)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
