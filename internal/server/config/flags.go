package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/flagx"
)

// parseFlags overlays the command-line flags this package owns.
//
//	-a string   HTTP listen address (e.g. ":5000")
//	-g string   gRPC health listen address
//	-b string   store backend: postgres | mongo | memory
//	-d string   PostgreSQL DSN
//	-m string   MongoDB URI
//	-o string   otp backend: record | redis
//	-r string   Redis address
//	-s string   JWT secret
//	-t int      session token validity, minutes
//	-n string   notifier: smtp | ses | log
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-b", "-d", "-m", "-o", "-r", "-s", "-t", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "gRPC health address and port")
	fs.StringVar(&config.StoreBackend, "b", config.StoreBackend, "store backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.OTPBackend, "o", config.OTPBackend, "otp backend")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret")
	tokenMinutes := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "session token validity (in minutes)")
	fs.StringVar(&config.Notifier, "n", config.Notifier, "notifier")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.TokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
	return nil
}
