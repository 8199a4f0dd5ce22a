// Package repomanager opens the configured Credential Store backend and
// vends the accounts repository bound to it.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/otpauth/internal/server/config"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	Accounts() accounts.Repository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// New opens the backend named by cfg.StoreBackend.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		return NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	case config.StoreMongo:
		return NewMongoRepositoryManager(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StoreMemory:
		return NewInMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

type InMemoryRepositoryManager struct {
	accounts *accounts.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{accounts: accounts.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) Accounts() accounts.Repository { return m.accounts }

func (m *InMemoryRepositoryManager) Ping(ctx context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Close(ctx context.Context) error { return nil }
