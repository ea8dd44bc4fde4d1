package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/dmitrijs2005/storefront/internal/flagx"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type envConfig struct {
	APIBaseURL        string        `env:"STOREFRONT_API_URL"`
	DatabaseDSN       string        `env:"STOREFRONT_DB"`
	RequestTimeout    time.Duration `env:"STOREFRONT_TIMEOUT"`
	RequestsPerSecond float64       `env:"STOREFRONT_RPS"`
	LogLevel          string        `env:"STOREFRONT_LOG_LEVEL"`
}

// parseEnv loads the dotenv file (if any) into the process environment and
// overlays cfg with the STOREFRONT_* variables. Variables already set in the
// environment win over the file. It panics on malformed values.
func parseEnv(cfg *Config) {
	loadDotenv(flagx.EnvFileFlags())

	ec := envConfig{
		APIBaseURL:        cfg.APIBaseURL,
		DatabaseDSN:       cfg.DatabaseDSN,
		RequestTimeout:    cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		LogLevel:          cfg.LogLevel,
	}

	if err := envdecode.Decode(&ec); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		panic(err)
	}

	cfg.APIBaseURL = ec.APIBaseURL
	cfg.DatabaseDSN = ec.DatabaseDSN
	cfg.RequestTimeout = ec.RequestTimeout
	cfg.RequestsPerSecond = ec.RequestsPerSecond
	cfg.LogLevel = ec.LogLevel
}

// loadDotenv reads path, or ./.env when path is empty. Only an explicitly
// named file is required to exist.
func loadDotenv(path string) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}
