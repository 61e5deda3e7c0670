// Package internal documents the VolunTier server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem documents and routing
// - domain: users, events and the application lifecycle
// - storage: Postgres and SQLite repositories behind one contract
// - auth, audit, config, metrics, telemetry, sanitize, validation: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
