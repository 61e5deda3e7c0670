// Package backend opens the store named by the configured database URL.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/Togather-Foundation/voluntier/internal/config"
	"github.com/Togather-Foundation/voluntier/internal/storage"
	"github.com/Togather-Foundation/voluntier/internal/storage/postgres"
	"github.com/Togather-Foundation/voluntier/internal/storage/sqlite"
)

// Open connects to the configured store. SQLite databases are migrated on
// open with the embedded migrations; Postgres schemas are managed with
// Migrate.
func Open(ctx context.Context, cfg config.DatabaseConfig) (storage.Repository, error) {
	switch cfg.Driver() {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database url %q", redact(cfg.URL))
	}
}

// Migrate brings the schema up to date. migrationsPath overrides the
// embedded migrations of the selected driver.
func Migrate(ctx context.Context, cfg config.DatabaseConfig, migrationsPath string) error {
	switch cfg.Driver() {
	case config.DriverPostgres:
		return postgres.MigrateUp(cfg.URL, migrationsPath)
	case config.DriverSQLite:
		return sqlite.Migrate(ctx, cfg, migrationsPath)
	default:
		return fmt.Errorf("unsupported database url %q", redact(cfg.URL))
	}
}

// MigrateDown rolls back steps migrations.
func MigrateDown(ctx context.Context, cfg config.DatabaseConfig, migrationsPath string, steps int) error {
	switch cfg.Driver() {
	case config.DriverPostgres:
		return postgres.MigrateDown(cfg.URL, migrationsPath, steps)
	case config.DriverSQLite:
		return sqlite.MigrateDown(ctx, cfg, migrationsPath, steps)
	default:
		return fmt.Errorf("unsupported database url %q", redact(cfg.URL))
	}
}

// redact keeps the scheme of a URL so error messages never echo
// credentials.
func redact(url string) string {
	if scheme, _, ok := strings.Cut(url, ":"); ok {
		return scheme + ":…"
	}
	if url == "" {
		return ""
	}
	return "…"
}
