package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds minimal runtime configuration. Extend as needed.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Article fetching
	FetchTimeoutSec  int `env:"FETCH_TIMEOUT_SEC" envDefault:"30"`
	FetchMaxAttempts int `env:"FETCH_MAX_ATTEMPTS" envDefault:"3"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"` // "postgres" (production database)
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"` // "nats" (required for inter-service communication)
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"redis"` // "redis" or "noop"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// LLM
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"gemini"` // "gemini" (default) or "openai"
	GoogleKey   string `env:"GOOGLE_API_KEY"`
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"gemini-2.5-pro"`

	// Digest
	DigestSchedule    string `env:"DIGEST_SCHEDULE" envDefault:"0 * * * *"` // hourly
	DigestWindowHours int    `env:"DIGEST_WINDOW_HOURS" envDefault:"24"`
	DigestMinReports  int    `env:"DIGEST_MIN_REPORTS" envDefault:"1"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
