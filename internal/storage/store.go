// Package storage defines the unified Store interface that abstracts all
// persistence. Two backends are provided: SQLite (default, zero-config)
// and PostgreSQL.
package storage

import (
	"context"

	"github.com/jkaninda/ligi/internal/docstore"
	"github.com/jkaninda/ligi/internal/identity"
	"github.com/jkaninda/ligi/internal/league"
)

// Store is the unified persistence interface for Ligi. Sub-store accessors
// share the same underlying connection. Both backends implement it.
type Store interface {
	// League sub-stores.
	Teams() league.TeamStore
	Students() league.StudentStore
	Attendance() league.AttendanceStore
	Points() league.PointsStore
	FollowUps() league.FollowUpStore

	// Account sub-stores.
	Identities() identity.Store
	Documents() docstore.Store

	// Lifecycle.
	Migrate(ctx context.Context) error
	// SeedDemo inserts demo teams and students when the league is empty.
	SeedDemo(ctx context.Context) error
	Close() error

	// Driver returns the storage driver name ("sqlite" or "postgres").
	Driver() string
}

// DriverSQLite is the SQLite driver name.
const DriverSQLite = "sqlite"

// DriverPostgres is the PostgreSQL driver name.
const DriverPostgres = "postgres"
