package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Zaphkiel07/Pawtine2/internal/config"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
)

var (
	_ Repository = (*SQLiteStore)(nil)
	_ Repository = (*PostgresStore)(nil)
	_ Repository = (*MemoryStore)(nil)
)

// Open returns the repository selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, clock schedule.Clock) (Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		repo, err := NewDemoMemory(clock)
		if err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		slog.Info("Using in-memory store", "demo_user_id", cfg.DemoUser)
		return repo, nil
	case config.DriverSQLite:
		repo, err := NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Using SQLite store", "path", cfg.DBPath)
		return repo, nil
	case config.DriverPostgres:
		repo, err := NewPostgres(ctx, PostgresOptions{
			DSN:         cfg.DatabaseURL,
			MaxConns:    cfg.PostgresMaxConns,
			AutoMigrate: cfg.PostgresAutoMigrate,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("Using Postgres store", "max_conns", cfg.PostgresMaxConns)
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
