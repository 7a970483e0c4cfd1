// Package commands implements the ecare CLI surface.
package commands

import (
	"database/sql"

	"github.com/805Burner66/ECARE/config"
	"github.com/805Burner66/ECARE/db"
	"github.com/805Burner66/ECARE/errors"
	"github.com/805Burner66/ECARE/logger"
)

// dbPathFlag overrides the configured store path when non-empty. Shared
// by every command that touches the store.
var dbPathFlag string

// openStore opens the configured database and verifies the schema is in
// place. Commands other than `db init` never migrate implicitly.
func openStore() (*sql.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load configuration")
	}
	path := cfg.Database.Path
	if dbPathFlag != "" {
		path = dbPathFlag
	}
	database, err := db.Open(path, logger.Logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.CheckSchema(database); err != nil {
		database.Close()
		return nil, nil, errors.WithHint(err, "run 'ecare db init' first")
	}
	return database, cfg, nil
}
