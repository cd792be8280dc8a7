package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Port int `envconfig:"PORT" default:"8080"`
	}

	// DatabaseURL empty means the server runs on the in-memory store.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}

	Ledger struct {
		StatementLimit int `envconfig:"STATEMENT_LIMIT" default:"100"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.App.Port)
}
