package main

import (
	"context"
	"net/http"
	"time"

	"blackjack-casino/internal/app"
	"blackjack-casino/internal/app/shop"
	"blackjack-casino/internal/config"
	"blackjack-casino/internal/logging"
	"blackjack-casino/internal/ratelimit"
	"blackjack-casino/internal/store"
	httptransport "blackjack-casino/internal/transport/http"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	catalog := shop.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = shop.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("load catalog failed")
		}
	}

	svc := app.NewServices(st, cfg, catalog)
	r := httptransport.NewRouter(svc, cfg, openLimiter(ctx, cfg))
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Bool("require_auth", cfg.RequireAuth).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func openStore(ctx context.Context, cfg config.ServerConfig) (store.Store, error) {
	if cfg.PostgresDSN == "" {
		log.Warn().Msg("POSTGRES_DSN not set, using in-memory store")
		return store.NewMemory(), nil
	}
	st, err := store.NewPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// openLimiter returns nil when Redis is not configured, which disables rate
// limiting.
func openLimiter(ctx context.Context, cfg config.ServerConfig) ratelimit.Limiter {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed, rate limiter will fail open")
	}
	return ratelimit.NewStore(client)
}
