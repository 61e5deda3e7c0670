// Package sqlite is the embedded single-file store used for development and
// small deployments. It serializes all access through one connection, so a
// transaction holds the whole database for its duration.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/config"
	"github.com/Togather-Foundation/voluntier/internal/domain/applications"
	"github.com/Togather-Foundation/voluntier/internal/domain/events"
	"github.com/Togather-Foundation/voluntier/internal/domain/users"
	"github.com/Togather-Foundation/voluntier/internal/metrics"
	"github.com/Togather-Foundation/voluntier/internal/storage"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Repository implements storage.Repository on a modernc.org/sqlite database.
type Repository struct {
	db *sql.DB
}

var _ storage.Repository = (*Repository)(nil)

// Open opens (creating if needed) the database named by a sqlite: URL and
// applies any pending schema migrations. "sqlite::memory:" opens a private
// in-memory database.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Repository, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db, ""); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := DSN(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// DSN turns "sqlite:<path>" into a modernc.org/sqlite data source name with
// foreign keys and a busy timeout enabled.
func DSN(rawURL string) (string, error) {
	path, ok := strings.CutPrefix(rawURL, "sqlite:")
	if !ok {
		return "", fmt.Errorf("sqlite url must start with sqlite: (got %q)", rawURL)
	}
	path = strings.TrimPrefix(path, "//")
	if path == "" {
		return "", fmt.Errorf("sqlite url has no path")
	}

	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	if path != ":memory:" {
		params.Add("_pragma", "journal_mode(WAL)")
	}

	if base, existing, found := strings.Cut(path, "?"); found {
		return base + "?" + existing + "&" + params.Encode(), nil
	}
	return "file:" + path + "?" + params.Encode(), nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{db: r.db}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{db: r.db}
}

func (r *Repository) Applications() applications.Repository {
	return &ApplicationRepository{db: r.db}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SchemaVersion reads golang-migrate's bookkeeping table.
func (r *Repository) SchemaVersion(ctx context.Context) (int64, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := r.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

func (r *Repository) Driver() string {
	return config.DriverSQLite
}

func (r *Repository) Close() {
	_ = r.db.Close()
}

func (r *Repository) PoolStats() metrics.PoolStats {
	stat := r.db.Stats()
	return metrics.PoolStats{
		Open:    stat.OpenConnections,
		InUse:   stat.InUse,
		Idle:    stat.Idle,
		MaxOpen: stat.MaxOpenConnections,
	}
}

// DB exposes the underlying handle for tests and tooling.
func (r *Repository) DB() *sql.DB {
	return r.db
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func pick(db *sql.DB, tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return db
}

// withTx runs fn in tx when one is already open, otherwise in a new
// transaction that is committed when fn succeeds and rolled back otherwise.
func withTx(ctx context.Context, db *sql.DB, tx *sql.Tx, fn func(*sql.Tx) error) (err error) {
	if tx != nil {
		return fn(tx)
	}

	tx, err = db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
		metrics.RecordTx(err)
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// errorCode returns the extended SQLite result code carried by err, or 0.
func errorCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := errorCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	return errorCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func isCheckViolation(err error) bool {
	return errorCode(err) == sqlite3.SQLITE_CONSTRAINT_CHECK
}

// timestamp scans the TEXT timestamps written by the schema defaults.
type timestamp struct {
	t *time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

func (ts timestamp) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case time.Time:
		*ts.t = v.UTC()
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*ts.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			*ts.t = parsed
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", raw)
}
