package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/logging"
	"github.com/dmitrijs2005/otpauth/internal/server/auth"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	ctxLogger    = "logger"
	ctxAccountID = "account_id"
	ctxRole      = "role"
)

// TokenVerifier checks signature and expiry of a session token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// requestLogger tags every request with an id and a child logger.
func requestLogger(base logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, id)

		l := base.With("request_id", id)
		c.Set(ctxLogger, l)

		start := time.Now()
		c.Next()

		l.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func loggerFrom(c *gin.Context) logging.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if l, ok := v.(logging.Logger); ok {
			return l
		}
	}
	return logging.NewDiscard()
}

func corsMiddleware(allowed string) gin.HandlerFunc {
	origins := []string{}
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	allowAll := len(origins) == 0

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowedOrigin := range origins {
				if origin == allowedOrigin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					c.Writer.Header().Set("Vary", "Origin")
					break
				}
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AuthRequired rejects requests without a valid bearer token and stores the
// account id and role for later handlers.
func AuthRequired(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], strings.TrimSpace(common.BearerPrefix)) || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or malformed authorization."})
			return
		}

		claims, err := v.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(c, err, "authorization")
			return
		}

		c.Set(ctxAccountID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole must run after AuthRequired.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, _ := c.Get(ctxRole)
		for _, role := range roles {
			if current == role {
				c.Next()
				return
			}
		}
		writeError(c, common.ErrForbidden, "authorization")
	}
}
