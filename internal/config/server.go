package config

import (
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type ServerConfig struct {
	// PostgresDSN selects the Postgres store; empty runs on the in-memory store.
	PostgresDSN string `env:"POSTGRES_DSN"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":3000"`

	AdminAPIKey string        `env:"ADMIN_API_KEY"`
	JWTSecret   string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"24h"`
	RequireAuth bool          `env:"REQUIRE_AUTH" envDefault:"false"`

	InitialBalance decimal.Decimal `env:"INITIAL_BALANCE" envDefault:"1000"`
	DemoWallet     string          `env:"DEMO_WALLET" envDefault:"0xMockWalletAddress1234567890"`

	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	CatalogPath       string        `env:"CATALOG_PATH"`
	HistorySessionGap time.Duration `env:"HISTORY_SESSION_GAP" envDefault:"30m"`

	DoubleAfterSplit bool `env:"DOUBLE_AFTER_SPLIT" envDefault:"true"`
	SplitAcesOneCard bool `env:"SPLIT_ACES_ONE_CARD" envDefault:"true"`

	MCPEnabled bool `env:"MCP_ENABLED" envDefault:"true"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.ParseWithOptions(&cfg, env.Options{FuncMap: funcMap()})
	return cfg, err
}

func funcMap() map[reflect.Type]env.ParserFunc {
	return map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(decimal.Decimal{}): func(v string) (interface{}, error) {
			return decimal.NewFromString(v)
		},
	}
}
