// Package database stores API keys and the request audit trail.
// Verification results are never persisted.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/factchecker/factlens/internal/config"
	"github.com/factchecker/factlens/internal/models"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for data persistence.
type Store interface {
	// API Keys
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string, t time.Time) error
	DeleteAPIKey(ctx context.Context, id string) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)

	// Audit logs
	LogRequest(ctx context.Context, log *models.AuditLog) error
	GetAuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
	Migrate() error
}

// Open creates the store selected by configuration.
func Open(cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
