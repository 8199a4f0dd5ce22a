// Package config loads runtime configuration for the auth CLI.
//
// Values are applied in order, later sources winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by -c or -config.
//  3. Command-line flags -a, -s and -t.
//
// The JSON file accepts durations as strings ("5s") or nanoseconds:
//
//	{
//	  "server_url": "http://localhost:5000",
//	  "session_db": "session.db",
//	  "request_timeout": "10s"
//	}
package config
