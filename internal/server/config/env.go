package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/otpauth/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays environment variables. A .env file (the -env-file flag,
// or ./.env when present) is loaded first; it never overrides variables that
// are already set in the process environment.
//
// PORT is honoured as a shorthand for HTTP_ADDR=":$PORT".
func parseEnv(config *Config) error {
	if err := loadDotEnv(flagx.EnvFileFlags()); err != nil {
		return err
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		if _, set := os.LookupEnv("HTTP_ADDR"); !set {
			config.HTTPAddr = ":" + port
		}
	}
	return nil
}

func loadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
