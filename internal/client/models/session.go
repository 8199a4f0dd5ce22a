package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is what the CLI keeps after a successful OTP verification.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ExpiresAt reads the exp claim without verifying the signature; the
// server remains the authority on validity.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Valid reports whether the session holds a token that has not expired
// at now.
func (s *Session) Valid(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && now.Before(exp)
}
