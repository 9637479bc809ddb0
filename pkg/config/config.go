package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// App holds application configuration.
type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

// Logger holds logger configuration.
type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Database holds database configuration.
type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// Redis holds Redis configuration.
type Redis struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	StreamMaxLen int64  `mapstructure:"stream_max_len"`
}

// API holds API server configuration.
type API struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// PricePublishers are the identity groups allowed to publish market prices.
	PricePublishers []string `mapstructure:"price_publishers"`
}

// LoginWith lists the enabled sign-in methods.
type LoginWith struct {
	Email bool `mapstructure:"email"`
}

// Auth holds identity service configuration.
type Auth struct {
	Name      string    `mapstructure:"name"`
	LoginWith LoginWith `mapstructure:"login_with"`
	// Groups are listed in precedence order, highest first.
	Groups    []string `mapstructure:"groups"`
	JWTSecret string   `mapstructure:"jwt_secret"`
	TokenTTL  string   `mapstructure:"token_ttl"`
}

// Storage holds object storage configuration.
type Storage struct {
	Name      string `mapstructure:"name"`
	RootDir   string `mapstructure:"root_dir"`
	MaxUpload int64  `mapstructure:"max_upload_bytes"`
}

// AI holds configuration for the AI invocation function.
type AI struct {
	Provider           string  `mapstructure:"provider"`
	Timeout            string  `mapstructure:"timeout"`
	DefaultMaxTokens   int     `mapstructure:"default_max_tokens"`
	DefaultTemperature float32 `mapstructure:"default_temperature"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// News holds configuration for news ingestion.
type News struct {
	Schedule           string   `mapstructure:"schedule"`
	Feeds              []string `mapstructure:"feeds"`
	MaxItemsPerFeed    int      `mapstructure:"max_items_per_feed"`
	MaxConcurrent      int      `mapstructure:"max_concurrent"`
	MaxAgeInDays       int      `mapstructure:"max_age_in_days"`
	MaxContentLength   int      `mapstructure:"max_content_length"`
	BlacklistedDomains []string `mapstructure:"blacklisted_domains"`
	RequestTimeout     string   `mapstructure:"request_timeout"`
}

// Load loads configuration from a file into the given config struct.
func Load(path string, config interface{}) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Failed to read config file, trying environment variables")
	}

	return viper.Unmarshal(config)
}
