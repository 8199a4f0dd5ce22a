// Package services contains application services for the auth CLI.
// AuthService drives the register / login / OTP / reset flows against the
// server and keeps the resulting session in the local store.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/client/client"
	"github.com/dmitrijs2005/otpauth/internal/client/models"
	"github.com/dmitrijs2005/otpauth/internal/client/repositories/session"
)

// ErrNotSignedIn is returned by protected operations when no unexpired
// session is stored.
var ErrNotSignedIn = errors.New("not signed in")

// AuthService defines authentication operations for the CLI.
//
// Passwords are passed as byte slices so callers can wipe them after use.
type AuthService interface {
	Register(ctx context.Context, username, email string, password []byte, role string) (*models.User, error)
	// Login checks the password and returns the address the OTP went to.
	Login(ctx context.Context, email string, password []byte) (string, error)
	// VerifyOTP completes login and persists the session.
	VerifyOTP(ctx context.Context, email, otp string) (*models.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp string, newPassword []byte) error
	// CurrentUser returns the signed-in profile as confirmed by the server.
	CurrentUser(ctx context.Context) (*models.User, error)
	Session(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	store  session.Store
	now    func() time.Time
}

func NewAuthService(c client.Client, store session.Store) AuthService {
	return &authService{client: c, store: store, now: time.Now}
}

func (a *authService) Register(ctx context.Context, username, email string, password []byte, role string) (*models.User, error) {
	return a.client.Register(ctx, username, email, string(password), role)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (string, error) {
	res, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return "", err
	}
	if !res.RequiresOTP {
		return "", fmt.Errorf("unexpected login response: %s", res.Message)
	}
	if res.Email != "" {
		return res.Email, nil
	}
	return email, nil
}

func (a *authService) VerifyOTP(ctx context.Context, email, otp string) (*models.Session, error) {
	res, err := a.client.VerifyOTP(ctx, email, otp)
	if err != nil {
		return nil, err
	}

	sess := &models.Session{Token: res.Token, User: res.User}
	if err := a.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return sess, nil
}

func (a *authService) ForgotPassword(ctx context.Context, email string) error {
	return a.client.ForgotPassword(ctx, email)
}

func (a *authService) ResetPassword(ctx context.Context, email, otp string, newPassword []byte) error {
	return a.client.ResetPassword(ctx, email, otp, string(newPassword))
}

// Session returns the stored session if it is still within its validity
// window. An expired session is cleared.
func (a *authService) Session(ctx context.Context) (*models.Session, error) {
	sess, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotSignedIn
	}
	if !sess.Valid(a.now()) {
		if err := a.store.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, ErrNotSignedIn
	}
	return sess, nil
}

func (a *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	sess, err := a.Session(ctx)
	if err != nil {
		return nil, err
	}

	user, err := a.client.Me(ctx, sess.Token)
	if errors.Is(err, client.ErrUnauthorized) {
		if cerr := a.store.Clear(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("%w: %v", ErrNotSignedIn, err)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
