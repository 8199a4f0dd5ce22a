// Package server wires the auth service together: it opens the credential
// store, picks the OTP store and the notifier, and runs the HTTP API next to
// the gRPC health server until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/otpauth/internal/logging"
	"github.com/dmitrijs2005/otpauth/internal/server/auth"
	"github.com/dmitrijs2005/otpauth/internal/server/config"
	"github.com/dmitrijs2005/otpauth/internal/server/httpapi"
	"github.com/dmitrijs2005/otpauth/internal/server/notify"
	"github.com/dmitrijs2005/otpauth/internal/server/otp"
	"github.com/dmitrijs2005/otpauth/internal/server/passwords"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/otpauth/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/otpauth/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	redis       *redis.Client
	tokens      *auth.Issuer
	authService *services.AuthService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	repos, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	app := &App{config: c, logger: logger, repos: repos}

	otps, err := app.newOTPStore(ctx)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	notifier, err := newNotifier(ctx, c, logger)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	app.tokens = auth.NewIssuer(c.SecretKey, c.TokenValidityDuration)
	app.authService = services.NewAuthService(
		repos.Accounts(),
		otps,
		otp.NewGenerator(c.OTPValidityDuration),
		passwords.NewBcryptHasher(c.BcryptCost),
		app.tokens,
		notify.WithTimeout(notifier, c.NotifyTimeout),
		logger.With("module", "auth_service"),
	)

	return app, nil
}

func (app *App) newOTPStore(ctx context.Context) (otp.Store, error) {
	switch app.config.OTPBackend {
	case config.OTPRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     app.config.RedisAddr,
			Password: app.config.RedisPassword,
			DB:       app.config.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = rdb
		return otp.NewRedisStore(rdb, app.repos.Accounts()), nil
	default:
		return otp.NewRecordStore(app.repos.Accounts()), nil
	}
}

func newNotifier(ctx context.Context, c *config.Config, l logging.Logger) (notify.Notifier, error) {
	switch c.Notifier {
	case config.NotifierSES:
		n, err := notify.NewSESNotifier(ctx, notify.SESConfig{
			Region:          c.SESRegion,
			From:            c.SESFrom,
			AccessKeyID:     c.SESAccessKeyID,
			SecretAccessKey: c.SESSecretAccessKey,
			Endpoint:        c.SESEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("ses init error: %w", err)
		}
		return n, nil
	case config.NotifierLog:
		l.Warn(ctx, "log notifier enabled: one-time codes will be written to the log")
		return notify.NewLogNotifier(l.With("module", "notifier")), nil
	default:
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
		}), nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.config.AllowedOrigins, app.logger, app.authService, app.tokens, app.repos)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.logger, app.repos)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"store", app.config.StoreBackend,
		"otp", app.config.OTPBackend,
		"notifier", app.config.Notifier,
	)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCHealthAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close", "error", err)
		}
	}
	if err := app.repos.Close(ctx); err != nil {
		app.logger.Error(ctx, "store close", "error", err)
	}
}
