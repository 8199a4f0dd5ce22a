package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/otpauth/internal/flagx"
)

var osArgs = func() []string { return os.Args[1:] }

// parseFlags overlays cfg with the short flags this package owns:
//
//	-a string     base URL of the auth API
//	-s string     path to the session database
//	-t duration   HTTP request timeout, e.g. "5s"
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(osArgs(), []string{"-a", "-s", "-t"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "auth API base URL")
	fs.StringVar(&cfg.SessionDBPath, "s", cfg.SessionDBPath, "session database path")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")

	return fs.Parse(args)
}
