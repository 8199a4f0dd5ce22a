package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. It is meant for local
// runs and tests; everything is lost on restart.
type MemoryRepository struct {
	mu      sync.Mutex
	byID    map[string]*models.Account
	byEmail map[string]string
	byName  map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
		byName:  make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	if _, ok := r.byName[account.Username]; ok {
		return nil, common.ErrAlreadyExists
	}

	now := r.now()
	account.ID = uuid.NewString()
	account.CreatedAt = now
	account.UpdatedAt = now

	stored := *account
	stored.ClearOTP()
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	r.byName[stored.Username] = stored.ID

	return account, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyAccount(r.byID[id]), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyAccount(a), nil
}

func (r *MemoryRepository) SetOTP(ctx context.Context, id string, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	a.OTP = code
	a.OTPExpiresAt = &expiresAt
	a.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*models.Account, error) {
	return r.consume(email, code, now, "")
}

func (r *MemoryRepository) ResetPassword(ctx context.Context, email, code string, now time.Time, passwordHash string) (*models.Account, error) {
	return r.consume(email, code, now, passwordHash)
}

func (r *MemoryRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) consume(email, code string, now time.Time, passwordHash string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	a := r.byID[id]
	if !a.OTPMatches(code, now) {
		return nil, common.ErrNotFound
	}

	a.ClearOTP()
	if passwordHash != "" {
		a.PasswordHash = passwordHash
	}
	a.UpdatedAt = r.now()
	return copyAccount(a), nil
}

func copyAccount(a *models.Account) *models.Account {
	c := *a
	if a.OTPExpiresAt != nil {
		exp := *a.OTPExpiresAt
		c.OTPExpiresAt = &exp
	}
	return &c
}
