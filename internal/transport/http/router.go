package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"blackjack-casino/internal/app"
	"blackjack-casino/internal/app/apperr"
	"blackjack-casino/internal/config"
	"blackjack-casino/internal/mcpserver"
	"blackjack-casino/internal/ratelimit"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// NewRouter mounts the API over svc. A nil limiter disables rate limiting.
func NewRouter(svc *app.Services, cfg config.ServerConfig, limiter ratelimit.Limiter) *chi.Mux {
	gameHandlers := NewGameHandlers(svc.Play, svc.History, svc.RequireAuth)
	accountHandlers := NewAccountHandlers(svc.Account, svc.Ledger, svc.RequireAuth)
	storeHandlers := NewStoreHandlers(svc.Shop, svc.RequireAuth)
	adminHandlers := NewAdminHandlers(svc.Store)
	limit := rateLimitFor(limiter, cfg.RateLimitPerMinute)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	if cfg.MCPEnabled {
		mcpSrv := mcpserver.New(svc)
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(APILogMiddleware(), limit("mcp")).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(IdentityMiddleware(svc.Tokens, cfg.AdminAPIKey))
		r.Get("/health", adminHandlers.Health())

		r.Group(func(r chi.Router) {
			r.Use(limit("auth"))
			r.Get("/auth/wallet", accountHandlers.DemoWallets())
			r.Post("/auth/wallet", accountHandlers.WalletLogin())
		})

		r.Group(func(r chi.Router) {
			r.Use(limit("game"))
			r.Post("/game/play", gameHandlers.Play())
			r.Post("/game/action", gameHandlers.Action())
			r.Get("/game/active", gameHandlers.Active())
			r.Get("/game/{id}", gameHandlers.Get())
			r.Get("/history", gameHandlers.History())
		})

		r.Group(func(r chi.Router) {
			r.Use(limit("store"))
			r.Get("/store/items", storeHandlers.Items())
			r.Post("/store/purchase", storeHandlers.Purchase())
		})

		r.Get("/user", accountHandlers.CurrentUser())
		r.Post("/user", accountHandlers.UpdateCurrentUser())
		r.Get("/user/{id}", accountHandlers.UserDetail())

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Post("/user/{id}", accountHandlers.AdjustUser())
			r.Get("/user/{id}/ledger", accountHandlers.VerifyLedger())
			r.Get("/users", accountHandlers.Users())

			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})
	return r
}

// rateLimitFor returns a middleware factory per route group. Callers are
// keyed by token subject when present and by client IP otherwise.
func rateLimitFor(limiter ratelimit.Limiter, perMinute int) func(group string) func(http.Handler) http.Handler {
	if limiter == nil || perMinute <= 0 {
		return func(string) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler { return next }
		}
	}
	deny := func(w http.ResponseWriter, _ *http.Request) {
		metricRateLimited.Add(1)
		WriteHTTPError(w, http.StatusTooManyRequests, apperr.CodeRateLimited, "too many requests")
	}
	key := func(r *http.Request) string {
		if id, ok := UserFromContext(r.Context()); ok {
			return "user:" + id
		}
		return "ip:" + ratelimit.ClientIP(r)
	}
	return func(group string) func(http.Handler) http.Handler {
		rule := ratelimit.Rule{Group: group, Limit: int64(perMinute), Window: time.Minute}
		return ratelimit.Middleware(limiter, rule, key, deny)
	}
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
