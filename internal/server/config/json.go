package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/flagx"
	"github.com/dmitrijs2005/otpauth/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept "5m"
// style strings. Zero values leave the current setting untouched.
type JsonConfig struct {
	HTTPAddr       string `json:"http_addr"`
	GRPCHealthAddr string `json:"grpc_health_addr"`
	LogLevel       string `json:"log_level"`
	LogFormat      string `json:"log_format"`
	AllowedOrigins string `json:"allowed_origins"`

	StoreBackend  string `json:"store_backend"`
	DatabaseDSN   string `json:"database_dsn"`
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	OTPBackend    string `json:"otp_backend"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	OTPValidityDuration   timex.Duration `json:"otp_validity_duration"`
	BcryptCost            int            `json:"bcrypt_cost"`

	Notifier      string         `json:"notifier"`
	NotifyTimeout timex.Duration `json:"notify_timeout"`
	SMTPHost      string         `json:"smtp_host"`
	SMTPPort      int            `json:"smtp_port"`
	SMTPUser      string         `json:"smtp_user"`
	SMTPPassword  string         `json:"smtp_password"`
	SMTPFrom      string         `json:"smtp_from"`

	SESRegion          string `json:"ses_region"`
	SESFrom            string `json:"ses_from"`
	SESAccessKeyID     string `json:"ses_access_key_id"`
	SESSecretAccessKey string `json:"ses_secret_access_key"`
	SESEndpoint        string `json:"ses_endpoint"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.AllowedOrigins, c.AllowedOrigins)
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.OTPBackend, c.OTPBackend)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenValidityDuration, c.TokenValidityDuration)
	setDuration(&config.OTPValidityDuration, c.OTPValidityDuration)
	setInt(&config.BcryptCost, c.BcryptCost)
	setString(&config.Notifier, c.Notifier)
	setDuration(&config.NotifyTimeout, c.NotifyTimeout)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.SESRegion, c.SESRegion)
	setString(&config.SESFrom, c.SESFrom)
	setString(&config.SESAccessKeyID, c.SESAccessKeyID)
	setString(&config.SESSecretAccessKey, c.SESSecretAccessKey)
	setString(&config.SESEndpoint, c.SESEndpoint)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
