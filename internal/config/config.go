package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBPath     string `env:"DB_PATH" envDefault:"db.sqlite"`
	APIKey     string `env:"API_KEY,required,notEmpty"`
	AdminToken string `env:"ADMIN_TOKEN,required,notEmpty"`
	HouseAdmin string `env:"HOUSE_ADMIN,required,notEmpty"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr string `env:"REDIS_ADDR"`
	NatsURL   string `env:"NATS_URL"`

	ReserveMultiple  uint64 `env:"RESERVE_MULTIPLE" envDefault:"10"`
	SafetyMultiplier uint64 `env:"SAFETY_MULTIPLIER" envDefault:"100"`
	RedeemFeeBps     uint64 `env:"REDEEM_FEE_BPS" envDefault:"30"`
	MinRedeemFee     uint64 `env:"MIN_REDEEM_FEE" envDefault:"1000"`

	PruneInterval    time.Duration `env:"PRUNE_INTERVAL" envDefault:"1m"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	RetryInterval    time.Duration `env:"SETTLE_RETRY_INTERVAL" envDefault:"15s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RedeemFeeBps > 10_000 {
		return nil, fmt.Errorf("REDEEM_FEE_BPS must be at most 10000, got %d", cfg.RedeemFeeBps)
	}
	if cfg.PruneInterval <= 0 || cfg.SnapshotInterval <= 0 || cfg.RetryInterval <= 0 {
		return nil, fmt.Errorf("job intervals must be positive")
	}
	return &cfg, nil
}
