package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type BotConfig struct {
	BaseURL string          `env:"BASE_URL" envDefault:"http://localhost:3000"`
	UserID  string          `env:"USER_ID"`
	Token   string          `env:"TOKEN"`
	Hands   int             `env:"HANDS" envDefault:"10"`
	Bet     decimal.Decimal `env:"BET" envDefault:"10"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.ParseWithOptions(&cfg, env.Options{FuncMap: funcMap()})
	return cfg, err
}
