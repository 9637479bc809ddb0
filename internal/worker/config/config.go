package config

import (
	"time"

	"kointos-backend/pkg/config"
)

// Worker holds worker-specific configuration.
type Worker struct {
	PriceStreamTimeout time.Duration `mapstructure:"price_stream_timeout"`
	PriceStreamBlock   time.Duration `mapstructure:"price_stream_block"`
	// PriceDedupeTTL is how long an unchanged price for a symbol is ignored.
	PriceDedupeTTL     time.Duration `mapstructure:"price_dedupe_ttl"`
	PriceRetryInterval time.Duration `mapstructure:"price_retry_interval"`
	PriceMaxIdle       time.Duration `mapstructure:"price_max_idle"`
	PriceMaxRetry      int           `mapstructure:"price_max_retry"`
	NewsTimeout        time.Duration `mapstructure:"news_timeout"`
}

// Config holds the full configuration for the worker service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	Worker   Worker          `mapstructure:"worker"`
	AI       config.AI       `mapstructure:"ai"`
	Gemini   config.Gemini   `mapstructure:"gemini"`
	Telegram config.Telegram `mapstructure:"telegram"`
	News     config.News     `mapstructure:"news"`
}

// Load loads the worker configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Worker.PriceStreamTimeout <= 0 {
		cfg.Worker.PriceStreamTimeout = 30 * time.Second
	}
	if cfg.Worker.PriceStreamBlock <= 0 {
		cfg.Worker.PriceStreamBlock = 2 * time.Second
	}
	if cfg.Worker.PriceDedupeTTL <= 0 {
		cfg.Worker.PriceDedupeTTL = 5 * time.Minute
	}
	if cfg.Worker.PriceRetryInterval <= 0 {
		cfg.Worker.PriceRetryInterval = 30 * time.Second
	}
	if cfg.Worker.PriceMaxIdle <= 0 {
		cfg.Worker.PriceMaxIdle = time.Minute
	}
	if cfg.Worker.PriceMaxRetry <= 0 {
		cfg.Worker.PriceMaxRetry = 3
	}
	if cfg.Worker.NewsTimeout <= 0 {
		cfg.Worker.NewsTimeout = 10 * time.Minute
	}
	return &cfg, nil
}
