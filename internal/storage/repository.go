// Package storage defines the store contract shared by the Postgres and
// embedded SQLite backends.
package storage

import (
	"context"

	"github.com/Togather-Foundation/voluntier/internal/domain/applications"
	"github.com/Togather-Foundation/voluntier/internal/domain/events"
	"github.com/Togather-Foundation/voluntier/internal/domain/users"
	"github.com/Togather-Foundation/voluntier/internal/metrics"
)

// Repository groups data access by domain.
type Repository interface {
	Users() users.Repository
	Events() events.Repository
	Applications() applications.Repository

	// Ping checks that the store answers queries.
	Ping(ctx context.Context) error
	// SchemaVersion reports the applied schema version and whether the
	// last migration was left incomplete.
	SchemaVersion(ctx context.Context) (version int64, dirty bool, err error)
	// Driver names the backend ("postgres" or "sqlite").
	Driver() string
	Close()

	metrics.StatsSource
}
