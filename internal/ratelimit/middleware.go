package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*Result, error)
}

type Rule struct {
	Group  string
	Limit  int64
	Window time.Duration
}

// KeyFunc names the caller a request is counted against.
type KeyFunc func(r *http.Request) string

// Middleware enforces rule per caller. Limiter errors let the request
// through. deny writes the rejection once headers are set.
func Middleware(l Limiter, rule Rule, key KeyFunc, deny http.HandlerFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), key(r)+":"+rule.Group, rule.Limit, rule.Window)
			if err != nil {
				log.Warn().Err(err).Str("group", rule.Group).Msg("rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt, 10))
			if !res.Allowed {
				retryAfter := res.ResetAt - time.Now().Unix()
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				deny(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys on the remote host. Run chi's RealIP first behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
