package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds environment-derived configuration. Provider credentials are not
// read here; they are passed through to the search adapters by env var name
// only.
type Env struct {
	DataDir        string `env:"TOPICWATCH_DATA_DIR"`
	TelegramTarget string `env:"TOPICWATCH_TELEGRAM_ID"`
}

// LoadEnv reads environment configuration, loading a .env file first when
// one is present.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parsing environment: %w", err)
	}
	return e, nil
}
