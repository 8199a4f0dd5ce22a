package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/otpauth/internal/client/client"
	"github.com/dmitrijs2005/otpauth/internal/client/config"
	"github.com/dmitrijs2005/otpauth/internal/client/repositories/session"
	"github.com/dmitrijs2005/otpauth/internal/client/services"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	db          *sql.DB
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := session.Open(ctx, c.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	as := services.NewAuthService(apiClient, session.NewSQLiteStore(db))

	return &App{
		config:      c,
		authService: as,
		db:          db,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

// Run blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	fmt.Fprintln(a.out, "Welcome to the auth CLI (type 'help' for commands)")
	if err := a.authService.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "Warning: %s at %s\n", describe(err), a.config.ServerURL)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	_, err := a.authService.Session(ctx)
	return err == nil
}

func (a *App) getStatus(ctx context.Context) string {
	sess, err := a.authService.Session(ctx)
	if err != nil {
		return ""
	}
	return "(" + sess.User.Email + ")"
}

// fail prints a user-facing description of err and returns it.
func (a *App) fail(err error) error {
	fmt.Fprintln(a.out, "Error:", describe(err))
	return err
}

func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, services.ErrNotSignedIn):
		return "please log in first"
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	default:
		return err.Error()
	}
}
