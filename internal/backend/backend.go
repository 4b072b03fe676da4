// Package backend builds the remote service implementation selected by
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/caffeinepub/travel-expense-tracker/internal/config"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote/memory"
	"github.com/caffeinepub/travel-expense-tracker/internal/storage"
)

// CleanupFunc releases backend resources; may be nil.
type CleanupFunc func() error

// Result carries the service instance and its cleanup function.
type Result struct {
	Service remote.Service
	Cleanup CleanupFunc
}

// New creates the remote service for the configured backend type.
func New(cfg *config.Config) (*Result, error) {
	switch cfg.DataBackend {
	case "memory":
		slog.Info("Initialized memory backend")
		return &Result{Service: memory.New()}, nil

	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		slog.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Service: repo, Cleanup: repo.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}
