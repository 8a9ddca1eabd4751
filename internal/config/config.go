package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is shared by the quiz CLI and the reference API server. Each
// binary reads only the fields it needs.
type Config struct {
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Client side.
	APIURL        string        `env:"QUIZ_API_URL" envDefault:"https://quizzes.eversols.com/api/"`
	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	TokenStore    string        `env:"TOKEN_STORE" envDefault:"sqlite"`
	TokenDBPath   string        `env:"TOKEN_DB_PATH" envDefault:"quiz-client.db"`
	RedisURL      string        `env:"REDIS_URL"`
	DefaultQuizID string        `env:"DEFAULT_QUIZ_ID" envDefault:"1"`

	// Server side.
	HTTPAddr  string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath    string        `env:"DB_PATH" envDefault:"data/quizapi.db"`
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"72h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
