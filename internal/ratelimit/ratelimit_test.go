package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestStore_Allow(t *testing.T) {
	st, mr := newTestStore(t)
	fixed := time.Unix(1_700_000_000, 0)
	st.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		res, err := st.Allow(ctx, "u1:game", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 3-i, res.Remaining)
	}
	res, err := st.Allow(ctx, "u1:game", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, (fixed.Unix()/60+1)*60, res.ResetAt)

	other, err := st.Allow(ctx, "u2:game", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	key := "ratelimit:u1:game:" + itoa(fixed.Unix()/60)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 61*time.Second, mr.TTL(key))

	st.now = func() time.Time { return fixed.Add(time.Minute) }
	next, err := st.Allow(ctx, "u1:game", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, next.Allowed, "new window resets the count")
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	st, _ := newTestStore(t)
	fixed := time.Now()
	st.now = func() time.Time { return fixed }
	rule := Rule{Group: "game", Limit: 2, Window: time.Minute}
	deny := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }
	h := Middleware(st, rule, nil, deny)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/game/action", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		last = rec
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int64, time.Duration) (*Result, error) {
	return nil, errors.New("redis down")
}

func TestMiddleware_DegradesToAllow(t *testing.T) {
	h := Middleware(failingLimiter{}, Rule{Group: "game", Limit: 1, Window: time.Minute}, nil,
		func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
	)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:1234"
	assert.Equal(t, "192.168.1.9", ClientIP(req))
	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", ClientIP(req))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
