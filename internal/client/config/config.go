package config

import "time"

// Config holds runtime settings for the auth CLI.
//
// Fields:
//   - ServerURL: base URL of the auth HTTP API.
//   - SessionDBPath: SQLite file that keeps the signed-in session.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerURL      string
	SessionDBPath  string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:5000"
	c.SessionDBPath = "session.db"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
