package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Chatwork
	ChatworkAPIToken string        `env:"CHATWORK_API_TOKEN"`
	ChatworkBaseURL  string        `env:"CHATWORK_BASE_URL" envDefault:"https://api.chatwork.com/v2"`
	SendMinInterval  time.Duration `env:"SEND_MIN_INTERVAL" envDefault:"500ms"`
	RateLimitWait    time.Duration `env:"RATE_LIMIT_WAIT" envDefault:"60s"`

	// Database
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite3"` // "sqlite3" or "postgres"
	DatabaseDSN    string `env:"DATABASE_DSN" envDefault:"./data/mailrelay.db"`

	// IMAP
	IMAPDialTimeout time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	switch cfg.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}
