// Package models holds the storage-agnostic account record and the public
// profile that is safe to hand to clients.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
)

// Role is the authorization role carried in session tokens.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// ParseRole validates a role string. An empty value means RoleEmployee.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleEmployee:
		return RoleEmployee, nil
	case RoleManager:
		return RoleManager, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", common.ErrInvalidInput, s)
	}
}

// Account is one registered identity.
//
// OTP and OTPExpiresAt are either both set (a login or reset is pending) or
// both empty.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	OTP          string
	OTPExpiresAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPendingOTP reports whether a code is outstanding and still valid at now.
func (a *Account) HasPendingOTP(now time.Time) bool {
	return a.OTP != "" && a.OTPExpiresAt != nil && a.OTPExpiresAt.After(now)
}

// OTPMatches reports whether code is the pending OTP and it has not expired
// at now. Expiry and code are always checked together.
func (a *Account) OTPMatches(code string, now time.Time) bool {
	return code != "" && a.HasPendingOTP(now) && a.OTP == code
}

// ClearOTP drops the pending code.
func (a *Account) ClearOTP() {
	a.OTP = ""
	a.OTPExpiresAt = nil
}

// Profile returns the public view of the account. It never includes the hash.
func (a *Account) Profile() Profile {
	return Profile{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role}
}

// Profile is what clients see of an account.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
