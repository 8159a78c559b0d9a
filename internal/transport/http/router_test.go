package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blackjack-casino/internal/app"
	"blackjack-casino/internal/config"
	"blackjack-casino/internal/game"
	"blackjack-casino/internal/ratelimit"
	"blackjack-casino/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const testDemoWallet = "demo-wallet-0001"

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		InitialBalance:     decimal.NewFromInt(1000),
		DemoWallet:         testDemoWallet,
		RateLimitPerMinute: 120,
		HistorySessionGap:  30 * time.Minute,
	}
}

// stackedEngine deals player T 9 against dealer 7 T every game, so standing
// wins and the hand cannot be split.
func stackedEngine(t *testing.T) *game.Engine {
	t.Helper()
	cards := make([]game.Card, 0, 4)
	for _, code := range []string{"Ts", "7h", "9c", "Td"} {
		c, err := game.ParseCard(code)
		if err != nil {
			t.Fatalf("parse card: %v", err)
		}
		cards = append(cards, c)
	}
	e := game.NewEngine(game.DefaultRules())
	e.NewDeck = func() *game.Deck { return game.StackedDeck(cards...) }
	return e
}

func newTestRouter(t *testing.T, cfg config.ServerConfig, st store.Store, limiter ratelimit.Limiter) (*chi.Mux, *app.Services) {
	t.Helper()
	if st == nil {
		st = store.NewMemory()
	}
	svc := app.NewServicesWithEngine(st, cfg, nil, stackedEngine(t))
	return NewRouter(svc, cfg, limiter), svc
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func demoUserID(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, body := doJSON(t, h, http.MethodGet, "/api/user", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/user status = %d body=%s", rec.Code, rec.Body.String())
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("demo user has no id: %v", body)
	}
	return id
}

func assertEnvelope(t *testing.T, rec *httptest.ResponseRecorder, body map[string]any, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d, body=%s", rec.Code, status, rec.Body.String())
	}
	if body["success"] != false || body["error"] != code {
		t.Fatalf("envelope = %v, want error %q", body, code)
	}
	if msg, _ := body["message"].(string); msg == "" {
		t.Fatalf("envelope without message: %v", body)
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, nil)
	rec, body := doJSON(t, r, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", rec.Code, body)
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
		t.Fatalf("timestamp %v: %v", body["timestamp"], err)
	}
}

type downStore struct {
	*store.MemStore
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthDegraded(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), downStore{store.NewMemory()}, nil)
	rec, body := doJSON(t, r, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusServiceUnavailable || body["status"] != "degraded" {
		t.Fatalf("health = %d %v", rec.Code, body)
	}
}

func TestDealStandAndReadBack(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, nil)
	userID := demoUserID(t, r)

	rec, body := doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{
		"userId": userID, "betAmount": 10, "moveType": "deal",
	}, nil)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("deal = %d %s", rec.Code, rec.Body.String())
	}
	if body["userBalance"] != float64(990) {
		t.Fatalf("balance after deal = %v", body["userBalance"])
	}
	g := body["game"].(map[string]any)
	if g["state"] != string(game.StatePlaying) {
		t.Fatalf("state = %v", g["state"])
	}
	dealer := g["dealerHand"].(map[string]any)["cards"].([]any)
	if hole := dealer[1].(map[string]any); hole["hidden"] != true || hole["rank"] != nil {
		t.Fatalf("hole card leaked: %v", hole)
	}
	gameID := g["id"].(string)

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/action", map[string]any{
		"gameId": gameID, "action": "stand", "userId": userID,
	}, nil)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("stand = %d %s", rec.Code, rec.Body.String())
	}
	g = body["game"].(map[string]any)
	if g["outcome"] != "win" || body["userBalance"] != float64(1010) {
		t.Fatalf("settled game = %v balance=%v", g, body["userBalance"])
	}

	rec, body = doJSON(t, r, http.MethodGet, "/api/game/"+gameID+"?userId="+userID, nil, nil)
	if rec.Code != http.StatusOK || body["game"].(map[string]any)["state"] != string(game.StateSettled) {
		t.Fatalf("get game = %d %s", rec.Code, rec.Body.String())
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/action", map[string]any{
		"gameId": gameID, "action": "hit", "userId": userID,
	}, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "game_settled")
}

func TestPlayEndpointAcceptsMoves(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, nil)
	userID := demoUserID(t, r)

	_, body := doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": userID, "betAmount": 10}, nil)
	gameID := body["game"].(map[string]any)["id"].(string)

	rec, body := doJSON(t, r, http.MethodGet, "/api/game/active?userId="+userID, nil, nil)
	if rec.Code != http.StatusOK || body["game"].(map[string]any)["id"] != gameID {
		t.Fatalf("active = %d %s", rec.Code, rec.Body.String())
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": userID, "betAmount": 10}, nil)
	assertEnvelope(t, rec, body, http.StatusConflict, "active_game_exists")

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": userID, "moveType": "stand"}, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "invalid_request")

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{
		"userId": userID, "moveType": "stand", "gameId": gameID,
	}, nil)
	if rec.Code != http.StatusOK || body["game"].(map[string]any)["outcome"] != "win" {
		t.Fatalf("stand via play = %d %s", rec.Code, rec.Body.String())
	}
}

func TestGameErrors(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, nil)
	userID := demoUserID(t, r)

	rec, body := doJSON(t, r, http.MethodPost, "/api/game/play", `{"userId":`, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "invalid_json")

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": userID, "betAmount": 0}, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "invalid_bet")

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": userID, "betAmount": 5000}, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "insufficient_balance")

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": "ghost", "betAmount": 10}, nil)
	assertEnvelope(t, rec, body, http.StatusNotFound, "user_not_found")

	_, body = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": userID, "betAmount": 10}, nil)
	gameID := body["game"].(map[string]any)["id"].(string)

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/action", map[string]any{"gameId": gameID, "action": "split", "userId": userID}, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "invalid_action")

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/action", map[string]any{"gameId": "nope", "action": "hit", "userId": userID}, nil)
	assertEnvelope(t, rec, body, http.StatusNotFound, "game_not_found")

	_, other := doJSON(t, r, http.MethodPost, "/api/auth/wallet", map[string]any{"walletAddress": "wallet-other", "signature": "sig"}, nil)
	rec, body = doJSON(t, r, http.MethodPost, "/api/game/action", map[string]any{"gameId": gameID, "action": "hit", "userId": other["id"]}, nil)
	assertEnvelope(t, rec, body, http.StatusForbidden, "forbidden")
}

func TestIdentityResolution(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, nil)
	demo := demoUserID(t, r)

	rec, login := doJSON(t, r, http.MethodPost, "/api/auth/wallet", map[string]any{
		"walletAddress": "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "signature": "sig",
	}, nil)
	if rec.Code != http.StatusOK || login["success"] != true {
		t.Fatalf("login = %d %s", rec.Code, rec.Body.String())
	}
	token := login["token"].(string)
	userID := login["id"].(string)
	if login["walletAddress"] != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Fatalf("wallet = %v", login["walletAddress"])
	}
	if _, ok := login["user"].(map[string]any); !ok {
		t.Fatalf("login missing nested user: %v", login)
	}

	rec, body := doJSON(t, r, http.MethodGet, "/api/user", nil, bearer(token))
	if rec.Code != http.StatusOK || body["id"] != userID {
		t.Fatalf("GET /api/user with token = %d %v", rec.Code, body["id"])
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"betAmount": 10}, bearer(token))
	if rec.Code != http.StatusOK || body["game"].(map[string]any)["userId"] != userID {
		t.Fatalf("deal with token = %d %s", rec.Code, rec.Body.String())
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": demo, "betAmount": 10}, bearer(token))
	assertEnvelope(t, rec, body, http.StatusForbidden, "forbidden")

	rec, body = doJSON(t, r, http.MethodGet, "/api/user/"+demo, nil, bearer(token))
	assertEnvelope(t, rec, body, http.StatusForbidden, "forbidden")

	rec, body = doJSON(t, r, http.MethodGet, "/api/user", nil, bearer("not-a-jwt"))
	assertEnvelope(t, rec, body, http.StatusUnauthorized, "unauthorized")

	rec, body = doJSON(t, r, http.MethodPost, "/api/auth/wallet", map[string]any{"walletAddress": "0xabc", "signature": ""}, nil)
	assertEnvelope(t, rec, body, http.StatusUnauthorized, "unauthorized")
}

func TestRequireAuth(t *testing.T) {
	cfg := testConfig()
	cfg.RequireAuth = true
	r, _ := newTestRouter(t, cfg, nil, nil)

	rec, body := doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": "someone", "betAmount": 10}, nil)
	assertEnvelope(t, rec, body, http.StatusUnauthorized, "unauthorized")

	_, login := doJSON(t, r, http.MethodPost, "/api/auth/wallet", map[string]any{"walletAddress": "wallet-one", "signature": "sig"}, nil)
	rec, _ = doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"betAmount": 10}, bearer(login["token"].(string)))
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated deal = %d %s", rec.Code, rec.Body.String())
	}
}

func TestStoreEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, nil)
	userID := demoUserID(t, r)

	rec, body := doJSON(t, r, http.MethodGet, "/api/store/items", nil, nil)
	if rec.Code != http.StatusOK || len(body["items"].([]any)) == 0 {
		t.Fatalf("items = %d %s", rec.Code, rec.Body.String())
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/store/purchase", map[string]any{
		"userId": userID, "itemId": "valid-item-001", "quantity": 1,
	}, nil)
	if rec.Code != http.StatusOK || body["success"] != true || body["userBalance"] != float64(990) {
		t.Fatalf("purchase = %d %s", rec.Code, rec.Body.String())
	}
	if tx := body["transaction"].(map[string]any); tx["type"] != "PURCHASE" || tx["amount"] != float64(-10) {
		t.Fatalf("transaction = %v", tx)
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/store/purchase", map[string]any{
		"userId": userID, "itemId": "invalid-item-999", "quantity": 1,
	}, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "item_not_found")
	if msg := body["message"].(string); !strings.Contains(msg, "invalid item") || !strings.Contains(msg, "not found") {
		t.Fatalf("message = %q", msg)
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/store/purchase", map[string]any{
		"userId": userID, "itemId": "valid-item-001", "quantity": 999,
	}, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "insufficient_balance")
	if msg := body["message"].(string); !strings.Contains(msg, "insufficient balance") {
		t.Fatalf("message = %q", msg)
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/store/purchase", map[string]any{
		"userId": userID, "itemId": "valid-item-001", "quantity": -2,
	}, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "invalid_quantity")
}

func TestUserEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, nil)

	rec, body := doJSON(t, r, http.MethodPost, "/api/user", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/user without body = %d", rec.Code)
	}
	userID := body["id"].(string)
	for _, k := range []string{"id", "walletAddress", "balance", "isDemo", "createdAt", "updatedAt", "user", "stats"} {
		if _, ok := body[k]; !ok {
			t.Fatalf("user response missing %q: %v", k, body)
		}
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/user", map[string]any{"balance": 500}, nil)
	if rec.Code != http.StatusOK || body["balance"] != float64(500) || body["id"] != userID {
		t.Fatalf("set balance = %d %s", rec.Code, rec.Body.String())
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/user/"+userID, map[string]any{"amount": 10.0, "type": "ADMIN_BONUS"}, nil)
	if rec.Code != http.StatusOK || body["userBalance"] != float64(510) {
		t.Fatalf("adjust = %d %s", rec.Code, rec.Body.String())
	}

	rec, body = doJSON(t, r, http.MethodGet, "/api/user/"+userID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail = %d", rec.Code)
	}
	txns := body["transactions"].([]any)
	if len(txns) != 3 || txns[0].(map[string]any)["note"] != "ADMIN_BONUS" {
		t.Fatalf("transactions = %v", txns)
	}

	rec, body = doJSON(t, r, http.MethodGet, "/api/user/"+userID+"/ledger", nil, nil)
	if rec.Code != http.StatusOK || body["consistent"] != true {
		t.Fatalf("ledger verify = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, r, http.MethodGet, "/api/users?limit=10", nil, nil)
	if rec.Code != http.StatusOK || body["total"] != float64(1) {
		t.Fatalf("users = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, r, http.MethodGet, "/api/user/ghost", nil, nil)
	assertEnvelope(t, rec, body, http.StatusNotFound, "user_not_found")

	rec, body = doJSON(t, r, http.MethodGet, "/api/auth/wallet", nil, nil)
	if rec.Code != http.StatusOK || len(body["wallets"].([]any)) != 1 {
		t.Fatalf("demo wallets = %d %v", rec.Code, body)
	}
}

func TestAdminKeyProtectsAdminRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.AdminAPIKey = "admin-key"
	r, _ := newTestRouter(t, cfg, nil, nil)
	userID := demoUserID(t, r)

	rec, body := doJSON(t, r, http.MethodPost, "/api/user/"+userID, map[string]any{"amount": 5}, nil)
	assertEnvelope(t, rec, body, http.StatusUnauthorized, "unauthorized")

	rec, _ = doJSON(t, r, http.MethodPost, "/api/user/"+userID, map[string]any{"amount": 5}, map[string]string{"X-Admin-Key": "admin-key"})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust with admin key = %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = doJSON(t, r, http.MethodGet, "/api/debug/vars", nil, bearer("admin-key"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "games_dealt_total") {
		t.Fatalf("debug vars = %d", rec.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, nil)
	userID := demoUserID(t, r)
	for i := 0; i < 2; i++ {
		_, body := doJSON(t, r, http.MethodPost, "/api/game/play", map[string]any{"userId": userID, "betAmount": 10}, nil)
		gameID := body["game"].(map[string]any)["id"].(string)
		doJSON(t, r, http.MethodPost, "/api/game/action", map[string]any{"gameId": gameID, "action": "stand", "userId": userID}, nil)
	}

	rec, body := doJSON(t, r, http.MethodGet, "/api/history?userId="+userID+"&resultFilter=win&page=1&limit=1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history = %d %s", rec.Code, rec.Body.String())
	}
	if len(body["games"].([]any)) != 1 || len(body["sessions"].([]any)) != 1 {
		t.Fatalf("history body = %v", body)
	}
	p := body["pagination"].(map[string]any)
	if p["total"] != float64(2) || p["hasNext"] != true {
		t.Fatalf("pagination = %v", p)
	}
	if body["overallStats"].(map[string]any)["wins"] != float64(2) {
		t.Fatalf("stats = %v", body["overallStats"])
	}

	rec, body = doJSON(t, r, http.MethodGet, "/api/history?userId="+userID+"&page=9223372036854775807", nil, nil)
	if rec.Code != http.StatusOK || len(body["games"].([]any)) != 0 {
		t.Fatalf("last page = %d %s", rec.Code, rec.Body.String())
	}
	if p := body["pagination"].(map[string]any); p["total"] != float64(2) || p["hasNext"] != false {
		t.Fatalf("last page pagination = %v", p)
	}

	rec, body = doJSON(t, r, http.MethodGet, "/api/history?userId="+userID+"&resultFilter=draw", nil, nil)
	assertEnvelope(t, rec, body, http.StatusBadRequest, "invalid_request")
}

type fixedLimiter struct {
	allowed int64
	calls   int64
	err     error
}

func (l *fixedLimiter) Allow(_ context.Context, _ string, limit int64, _ time.Duration) (*ratelimit.Result, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.calls++
	remaining := l.allowed - l.calls
	if remaining < 0 {
		remaining = 0
	}
	return &ratelimit.Result{
		Allowed:   l.calls <= l.allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(30 * time.Second).Unix(),
	}, nil
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, &fixedLimiter{allowed: 2})
	for i := 0; i < 2; i++ {
		rec, _ := doJSON(t, r, http.MethodGet, "/api/store/items", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec, body := doJSON(t, r, http.MethodGet, "/api/store/items", nil, nil)
	assertEnvelope(t, rec, body, http.StatusTooManyRequests, "rate_limited")
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Limit") != "120" {
		t.Fatalf("headers = %v", rec.Header())
	}

	rec, _ = doJSON(t, r, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health should not be rate limited, got %d", rec.Code)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	r, _ := newTestRouter(t, testConfig(), nil, &fixedLimiter{err: errors.New("redis down")})
	rec, _ := doJSON(t, r, http.MethodGet, "/api/store/items", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 when the limiter errors", rec.Code)
	}
}

func TestRateLimitWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	r, _ := newTestRouter(t, testConfig(), nil, ratelimit.NewStore(client))
	rec, _ := doJSON(t, r, http.MethodGet, "/api/store/items", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "120" || rec.Header().Get("X-RateLimit-Remaining") != "119" {
		t.Fatalf("headers = %v", rec.Header())
	}
	if len(mr.Keys()) != 1 || !strings.HasPrefix(mr.Keys()[0], "ratelimit:ip:") {
		t.Fatalf("redis keys = %v", mr.Keys())
	}
}
