// Package common defines shared constants and sentinel errors used across
// client and server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Auth flow errors; each maps to one client-visible status.
	ErrConflict            = errors.New("account already exists")
	ErrInvalidCredential   = errors.New("invalid password")
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")
	ErrDeliveryFailed      = errors.New("otp delivery failed")
	ErrStore               = errors.New("store error")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternal            = errors.New("internal error")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrForbidden    = errors.New("forbidden")
)
