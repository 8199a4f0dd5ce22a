package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/otpauth/internal/flagx"
	"github.com/dmitrijs2005/otpauth/internal/timex"
)

// JsonConfig is the on-disk shape of the client config file. Empty fields
// leave the current value untouched.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	SessionDBPath  string         `json:"session_db"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

var jsonConfigPath = flagx.JsonConfigFlags

func parseJson(cfg *Config) error {
	path := jsonConfigPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.SessionDBPath != "" {
		cfg.SessionDBPath = jc.SessionDBPath
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
