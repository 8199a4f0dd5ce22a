// Package accounts is the Credential Store: one record per registered
// identity, holding the password hash and the pending OTP.
//
// Every mutating method touches exactly one record in one store operation,
// so no locking is needed above the store.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/server/models"
)

type Repository interface {
	// Create inserts the account and fills in ID and timestamps. A duplicate
	// email or username yields common.ErrAlreadyExists.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByEmail and GetByID yield common.ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// SetOTP overwrites any pending code on the account.
	SetOTP(ctx context.Context, id string, code string, expiresAt time.Time) error

	// ConsumeOTP matches email, code and expiresAt > now in a single store
	// operation and clears the code on success. No match yields
	// common.ErrNotFound.
	ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*models.Account, error)

	// ResetPassword is ConsumeOTP that also replaces the password hash in
	// the same update.
	ResetPassword(ctx context.Context, email, code string, now time.Time, passwordHash string) (*models.Account, error)

	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
}
