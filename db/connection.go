// Package db manages the ECARE SQLite store: connection settings, embedded
// schema migrations, and the structural-failure gate that every pipeline
// stage runs before touching data.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/errors"
)

// SQLiteBusyTimeoutMS is how long a writer waits on a locked database.
const SQLiteBusyTimeoutMS = 5000

// Open opens a SQLite database at the specified path with standard settings.
// If logger is provided, logs database operations; otherwise operates silently.
func Open(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening database", "path", path)
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// WAL mode allows concurrent reads during the batch writer's commits
	if _, err := database.Exec("PRAGMA journal_mode = WAL"); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	if _, err := database.Exec("PRAGMA foreign_keys = ON"); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	if _, err := database.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", SQLiteBusyTimeoutMS)); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}

	if logger != nil {
		logger.Infow("Database opened",
			"path", path,
			"wal_mode", true,
			"foreign_keys", true,
		)
	}

	return database, nil
}

// requiredTables are the tables every pipeline stage depends on.
// entity_merges is absent on purpose: the merge engine creates it lazily.
var requiredTables = []string{
	"canonical_entities",
	"entity_resolution_log",
	"relationships",
	"relationship_sources",
}

// CheckSchema verifies the store carries the required tables. A missing
// table is a structural failure: the caller must abort before any mutation.
func CheckSchema(database *sql.DB) error {
	for _, table := range requiredTables {
		var name string
		err := database.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err == sql.ErrNoRows {
			return errors.Wrapf(errors.ErrSchemaMissing, "%s", table)
		}
		if err != nil {
			return errors.Wrapf(err, "checking for table %s", table)
		}
	}
	return nil
}
