package config

import "time"

// Config holds runtime settings for the storefront CLI.
type Config struct {
	// APIBaseURL is the origin of the storefront API; "/api" is appended by
	// the HTTP client.
	APIBaseURL string
	// DatabaseDSN locates the SQLite file holding the persisted session.
	DatabaseDSN       string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	LogLevel          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:5000"
	c.DatabaseDSN = "storefront.db"
	c.RequestTimeout = 10 * time.Second
	c.RequestsPerSecond = 0
	c.LogLevel = "info"
}

// LoadConfig applies defaults, then the JSON file, the environment and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
