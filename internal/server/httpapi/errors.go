package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/gin-gonic/gin"
)

// statusFor maps an auth flow error to exactly one status and message. op
// names the operation in the generic server-error message.
func statusFor(err error, op string) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid input."
	case errors.Is(err, common.ErrConflict):
		return http.StatusBadRequest, "User with this email or username already exists."
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "User not found."
	case errors.Is(err, common.ErrInvalidCredential):
		return http.StatusBadRequest, "Invalid password."
	case errors.Is(err, common.ErrInvalidOrExpiredOTP):
		return http.StatusBadRequest, "Invalid or expired OTP."
	case errors.Is(err, common.ErrDeliveryFailed):
		return http.StatusInternalServerError, "Could not send the OTP email. Please try again."
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Session expired."
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token."
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "Forbidden."
	default:
		return http.StatusInternalServerError, fmt.Sprintf("Server error during %s.", op)
	}
}

func writeError(c *gin.Context, err error, op string) {
	status, msg := statusFor(err, op)

	l := loggerFrom(c)
	if status >= http.StatusInternalServerError {
		l.Error(c.Request.Context(), op+" failed", "error", err)
	} else {
		l.Info(c.Request.Context(), op+" rejected", "status", status, "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}
