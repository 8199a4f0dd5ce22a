package accounts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, r *MemoryRepository) *models.Account {
	t.Helper()
	a, err := r.Create(context.Background(), &models.Account{
		Username: "alice", Email: "alice@example.com", PasswordHash: "hash", Role: models.RoleEmployee,
	})
	require.NoError(t, err)
	return a
}

func TestMemory_CreateAndGet(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)
	require.NotEmpty(t, a.ID)

	byEmail, err := r.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)

	byID, err := r.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = r.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemory_CreateDuplicates(t *testing.T) {
	r := NewMemoryRepository()
	seed(t, r)

	_, err := r.Create(context.Background(), &models.Account{Username: "bob", Email: "alice@example.com"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = r.Create(context.Background(), &models.Account{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestMemory_ReturnedCopiesAreDetached(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)

	got, err := r.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	got.PasswordHash = "tampered"

	again, err := r.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", again.PasswordHash)
}

func TestMemory_ConsumeOTP(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)
	now := time.Now()

	require.NoError(t, r.SetOTP(context.Background(), a.ID, "123456", now.Add(5*time.Minute)))

	_, err := r.ConsumeOTP(context.Background(), a.Email, "000000", now)
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := r.ConsumeOTP(context.Background(), a.Email, "123456", now)
	require.NoError(t, err)
	assert.Empty(t, got.OTP)
	assert.Nil(t, got.OTPExpiresAt)

	_, err = r.ConsumeOTP(context.Background(), a.Email, "123456", now)
	assert.ErrorIs(t, err, common.ErrNotFound, "code is single use")
}

func TestMemory_ConsumeOTP_Expired(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)
	now := time.Now()
	exp := now.Add(5 * time.Minute)

	require.NoError(t, r.SetOTP(context.Background(), a.ID, "123456", exp))

	_, err := r.ConsumeOTP(context.Background(), a.Email, "123456", exp)
	assert.ErrorIs(t, err, common.ErrNotFound, "expiry is exclusive")
}

func TestMemory_SetOTPReplacesPrevious(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)
	now := time.Now()

	require.NoError(t, r.SetOTP(context.Background(), a.ID, "111111", now.Add(5*time.Minute)))
	require.NoError(t, r.SetOTP(context.Background(), a.ID, "222222", now.Add(5*time.Minute)))

	_, err := r.ConsumeOTP(context.Background(), a.Email, "111111", now)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = r.ConsumeOTP(context.Background(), a.Email, "222222", now)
	assert.NoError(t, err)

	assert.ErrorIs(t, r.SetOTP(context.Background(), "missing", "1", now), common.ErrNotFound)
}

func TestMemory_ResetPassword(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)
	now := time.Now()

	require.NoError(t, r.SetOTP(context.Background(), a.ID, "123456", now.Add(time.Minute)))

	got, err := r.ResetPassword(context.Background(), a.Email, "123456", now, "newhash")
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)
	assert.Empty(t, got.OTP)

	_, err = r.ResetPassword(context.Background(), a.Email, "123456", now, "other")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemory_ConcurrentConsumeSucceedsOnce(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)
	now := time.Now()
	require.NoError(t, r.SetOTP(context.Background(), a.ID, "123456", now.Add(time.Minute)))

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.ConsumeOTP(context.Background(), a.Email, "123456", now); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}
