package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/client/models"
	"github.com/dmitrijs2005/otpauth/internal/common"
)

// Client is the auth API as seen by the CLI.
type Client interface {
	Register(ctx context.Context, username, email, password, role string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	VerifyOTP(ctx context.Context, email, otp string) (*VerifyResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
	Me(ctx context.Context, token string) (*models.User, error)
	Ping(ctx context.Context) error
}

type LoginResult struct {
	Message     string `json:"message"`
	RequiresOTP bool   `json:"requiresOtp"`
	Email       string `json:"email"`
}

type VerifyResult struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Register(ctx context.Context, username, email, password, role string) (*models.User, error) {
	req := map[string]string{"username": username, "email": email, "password": password}
	if role != "" {
		req["role"] = role
	}

	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, otp string) (*VerifyResult, error) {
	var resp VerifyResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"email": email, "otp": otp}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("server response carries no token")
	}
	return &resp, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": email}, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	req := map[string]string{"email": email, "otp": otp, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", "", req, nil)
}

func (c *HTTPClient) Me(ctx context.Context, token string) (*models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", "", nil, nil)
}

// do sends body as JSON and decodes a 2xx response into out. 401 becomes
// ErrUnauthorized wrapping the APIError; transport failures become
// ErrUnavailable.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Message
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
