// Package notify delivers one-time codes out of band. Every Notifier reports
// failure as an error; nothing is swallowed.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

const (
	LoginSubject = "Your Login OTP"
	ResetSubject = "Your Password Reset OTP"
)

// LoginMessage is the body of the login second-factor email.
func LoginMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your One-Time Password is: %s\nIt expires in %s.", code, humanize(ttl))
}

func ResetMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your password reset code is: %s\nIt expires in %s. If you did not ask to reset your password, ignore this email.", code, humanize(ttl))
}

func humanize(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}

// WithTimeout bounds every Send of n by timeout.
func WithTimeout(n Notifier, timeout time.Duration) Notifier {
	if timeout <= 0 {
		return n
	}
	return &timeoutNotifier{next: n, timeout: timeout}
}

type timeoutNotifier struct {
	next    Notifier
	timeout time.Duration
}

func (t *timeoutNotifier) Send(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- t.next.Send(ctx, to, subject, body) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send to %s: %w", to, ctx.Err())
	}
}

func parseAddress(from string) string {
	start := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(from[start+1 : end])
	}
	return strings.TrimSpace(from)
}
