// Package httpapi exposes the auth flow as JSON endpoints under /api/auth.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/logging"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTPServer struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

func NewHTTPServer(address, allowedOrigins string, l logging.Logger, svc AuthService, tokens TokenVerifier, store Pinger) *HTTPServer {
	logger := l.With("module", "http_server")

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger), corsMiddleware(allowedOrigins))
	registerRoutes(engine, svc, tokens, store)

	return &HTTPServer{address: address, engine: engine, logger: logger}
}

func registerRoutes(router *gin.Engine, svc AuthService, tokens TokenVerifier, store Pinger) {
	h := &authHandler{svc: svc}

	router.GET("/api/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello from the backend!"})
	})

	router.GET("/api/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			loggerFrom(c).Warn(ctx, "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Store unavailable.", "status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok", "status": "ok"})
	})

	api := router.Group("/api/auth")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/verify-otp", h.VerifyOTP)
		api.POST("/forgot-password", h.ForgotPassword)
		api.POST("/reset-password", h.ResetPassword)
	}

	protected := api.Group("/")
	protected.Use(AuthRequired(tokens))
	{
		protected.GET("/me", h.Me)
		protected.GET("/manager/ping", RequireRole(models.RoleManager), h.ManagerPing)
	}
}

func (s *HTTPServer) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
