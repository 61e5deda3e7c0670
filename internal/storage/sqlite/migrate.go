package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/voluntier/internal/config"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate opens the database named by cfg, applies all pending migrations
// and closes it again. An empty migrationsPath uses the migrations compiled
// into the binary.
func Migrate(ctx context.Context, cfg config.DatabaseConfig, migrationsPath string) error {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrateUp(db, migrationsPath)
}

// MigrateDown rolls back steps migrations on the database named by cfg.
func MigrateDown(ctx context.Context, cfg config.DatabaseConfig, migrationsPath string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migrate down: steps must be > 0")
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	m, src, err := newMigrator(db, migrationsPath)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

func migrateUp(db *sql.DB, migrationsPath string) error {
	m, src, err := newMigrator(db, migrationsPath)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// newMigrator binds golang-migrate to an open handle. Callers close the
// returned source only: closing the migrator would close db as well.
func newMigrator(db *sql.DB, migrationsPath string) (*migrate.Migrate, source.Driver, error) {
	var (
		src  source.Driver
		name string
		err  error
	)
	if migrationsPath != "" {
		name = "file"
		src, err = (&file.File{}).Open("file://" + migrationsPath)
	} else {
		name = "iofs"
		src, err = iofs.New(migrationsFS, "migrations")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance(name, src, "sqlite", driver)
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, src, nil
}
