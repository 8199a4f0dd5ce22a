// Package session persists the CLI's signed-in session between runs.
package session

import (
	"context"

	"github.com/dmitrijs2005/otpauth/internal/client/models"
)

// Store keeps at most one session.
type Store interface {
	// Load returns nil, nil when nobody is signed in.
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}
