package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// DATABASE_URL may be empty only for ENV=local, which then runs on the
	// in-memory account store.
	DatabaseURL string `env:"DATABASE_URL" validate:"required_unless=Env local"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	TokenSecret   string        `env:"TOKEN_SECRET,required" validate:"required,min=32"`
	TokenStrategy string        `env:"TOKEN_STRATEGY" envDefault:"signed" validate:"oneof=signed encrypted"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"1h" validate:"gt=0"`

	ResendAPIKey  string `env:"RESEND_API_KEY"  validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom    string `env:"RESEND_FROM"     validate:"required_if=Env production,required_if=Env staging"`
	VerifyBaseURL string `env:"VERIFY_BASE_URL" envDefault:"http://localhost:8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
