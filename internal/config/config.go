// Package config loads application configuration from the environment.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration for the server.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Port string `envconfig:"APP_PORT" default:"8080"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns      int32         `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns      int32         `envconfig:"DB_MIN_CONNS" default:"5"`
	DBMaxConnIdle   time.Duration `envconfig:"DB_MAX_CONN_IDLE" default:"30m"`
	DBConnLifetime  time.Duration `envconfig:"DB_CONN_LIFETIME" default:"1h"`
	StatementTimeout time.Duration `envconfig:"DB_STATEMENT_TIMEOUT" default:"30s"`

	JWTSecret string `envconfig:"JWT_SECRET" default:"change-me-in-production"`

	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
