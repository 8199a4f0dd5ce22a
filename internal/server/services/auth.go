// Package services contains server-side business logic. AuthService drives
// the two-step login: password check, emailed one-time code, then a session
// token. The password reset flow reuses the same code mechanism.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/logging"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/notify"
	"github.com/dmitrijs2005/otpauth/internal/server/otp"
	"github.com/dmitrijs2005/otpauth/internal/server/passwords"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/accounts"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type CodeGenerator interface {
	Generate(now time.Time) (otp.Code, error)
	TTL() time.Duration
}

type TokenIssuer interface {
	Issue(account *models.Account) (string, error)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Session is the result of a successful second factor.
type Session struct {
	Token string
	User  models.Profile
}

type AuthService struct {
	accounts accounts.Repository
	otps     otp.Store
	codes    CodeGenerator
	hasher   passwords.Hasher
	tokens   TokenIssuer
	notifier notify.Notifier
	log      logging.Logger
	now      func() time.Time
}

func NewAuthService(
	repo accounts.Repository,
	otps otp.Store,
	codes CodeGenerator,
	hasher passwords.Hasher,
	tokens TokenIssuer,
	notifier notify.Notifier,
	log logging.Logger,
) *AuthService {
	return &AuthService{
		accounts: repo,
		otps:     otps,
		codes:    codes,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Register creates an account and returns its public profile.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Profile, error) {
	username := strings.TrimSpace(in.Username)
	email := common.NormalizeEmail(in.Email)

	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: username and email are required", common.ErrInvalidInput)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	account, err := s.accounts.Create(ctx, &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrConflict
		}
		return nil, storeError(err)
	}

	p := account.Profile()
	return &p, nil
}

// Login checks the password and, on success, emails a fresh code. It returns
// the address the code went to; no token is issued here.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.lookup(ctx, email)
	if err != nil {
		return "", err
	}

	ok, err := s.hasher.Compare(ctx, account.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	if !ok {
		return "", common.ErrInvalidCredential
	}

	if err := s.issueCode(ctx, account, notify.LoginSubject, notify.LoginMessage); err != nil {
		return "", err
	}
	return account.Email, nil
}

// VerifyOTP consumes the pending code and mints a session token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	account, err := s.consume(ctx, email, code, "")
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	return &Session{Token: token, User: account.Profile()}, nil
}

// ForgotPassword emails a reset code to a known address.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	account, err := s.lookup(ctx, email)
	if err != nil {
		return "", err
	}

	if err := s.issueCode(ctx, account, notify.ResetSubject, notify.ResetMessage); err != nil {
		return "", err
	}
	return account.Email, nil
}

// ResetPassword consumes the pending code and replaces the password hash.
// The new password is hashed before the code is touched, so a bad password
// does not burn the code.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	_, err = s.consume(ctx, email, code, hash)
	return err
}

// Profile returns the current public profile for an authenticated account.
func (s *AuthService) Profile(ctx context.Context, accountID string) (*models.Profile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, storeError(err)
	}
	p := account.Profile()
	return &p, nil
}

// --- helpers below ---

func (s *AuthService) lookup(ctx context.Context, email string) (*models.Account, error) {
	email = common.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrInvalidInput)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, storeError(err)
	}
	return account, nil
}

// issueCode replaces any pending code on the account and sends the new one.
func (s *AuthService) issueCode(ctx context.Context, account *models.Account, subject string, body func(string, time.Duration) string) error {
	code, err := s.codes.Generate(s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	if err := s.otps.Save(ctx, account, code); err != nil {
		return storeError(err)
	}

	if err := s.notifier.Send(ctx, account.Email, subject, body(code.Value, s.codes.TTL())); err != nil {
		s.log.Warn(ctx, "otp delivery failed", "email", account.Email, "error", err)
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}
	return nil
}

// consume matches email, code and expiry in one store operation. A non-empty
// passwordHash also replaces the stored hash.
func (s *AuthService) consume(ctx context.Context, email, code, passwordHash string) (*models.Account, error) {
	email = common.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, common.ErrInvalidOrExpiredOTP
	}

	var (
		account *models.Account
		err     error
	)
	if passwordHash == "" {
		account, err = s.otps.Consume(ctx, email, code, s.now())
	} else {
		account, err = s.otps.ConsumeAndReset(ctx, email, code, s.now(), passwordHash)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidOrExpiredOTP
		}
		return nil, storeError(err)
	}
	return account, nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrInvalidInput)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}

func storeError(err error) error {
	return fmt.Errorf("%w: %v", common.ErrStore, err)
}
