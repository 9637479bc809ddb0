package config

import (
	"kointos-backend/pkg/config"
)

// Config holds the full configuration for the API service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	Auth     config.Auth     `mapstructure:"auth"`
	Storage  config.Storage  `mapstructure:"storage"`
	AI       config.AI       `mapstructure:"ai"`
	Gemini   config.Gemini   `mapstructure:"gemini"`
}

// Load loads the API configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
