package otp

import (
	"context"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/accounts"
)

// Store holds at most one pending code per account. Saving a new code
// replaces the old one, and a successful Consume clears it.
//
// Consume and ConsumeAndReset yield common.ErrNotFound when the account is
// unknown, the code does not match, or it has expired at now.
type Store interface {
	Save(ctx context.Context, account *models.Account, code Code) error
	Consume(ctx context.Context, email, code string, now time.Time) (*models.Account, error)
	ConsumeAndReset(ctx context.Context, email, code string, now time.Time, passwordHash string) (*models.Account, error)
}

// RecordStore keeps the code on the account record itself.
type RecordStore struct {
	accounts accounts.Repository
}

func NewRecordStore(repo accounts.Repository) *RecordStore {
	return &RecordStore{accounts: repo}
}

func (s *RecordStore) Save(ctx context.Context, account *models.Account, code Code) error {
	return s.accounts.SetOTP(ctx, account.ID, code.Value, code.ExpiresAt)
}

func (s *RecordStore) Consume(ctx context.Context, email, code string, now time.Time) (*models.Account, error) {
	return s.accounts.ConsumeOTP(ctx, email, code, now)
}

func (s *RecordStore) ConsumeAndReset(ctx context.Context, email, code string, now time.Time, passwordHash string) (*models.Account, error) {
	return s.accounts.ResetPassword(ctx, email, code, now, passwordHash)
}
