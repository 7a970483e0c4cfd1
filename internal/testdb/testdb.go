// Package testdb provides a migrated in-memory SQLite database for tests.
package testdb

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/805Burner66/ECARE/db"
)

// Open creates an in-memory SQLite database with the real migrations
// applied, so test schema always matches production schema.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// An in-memory database lives per connection; keep the pool at one so
	// every statement in the test sees the same database.
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.Migrate(database, nil), "failed to run migrations")
	return database
}
