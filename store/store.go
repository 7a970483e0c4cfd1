// Package store persists the canonical entity registry, the relationship
// graph, provenance rows and the resolution/merge audit trails. It is the
// only package that speaks SQL; everything above it works with entity
// values.
package store

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/errors"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every store method
// works unchanged inside a transaction.
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Store wraps a database handle. Zero-value is not usable; construct
// with New.
type Store struct {
	db     *sql.DB
	q      querier
	logger *zap.SugaredLogger
}

// New creates a store over an open database handle.
func New(db *sql.DB, logger *zap.SugaredLogger) *Store {
	return &Store{
		db:     db,
		q:      db,
		logger: logger.Named("store"),
	}
}

// WithTx runs fn against a store view bound to a single transaction,
// committing on nil and rolling back on error. Nesting is not supported:
// calling WithTx on a transactional view fails.
func (s *Store) WithTx(fn func(*Store) error) error {
	if _, ok := s.q.(*sql.DB); !ok {
		return errors.New("store: nested transactions are not supported")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	txStore := &Store{db: s.db, q: tx, logger: s.logger}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Errorw("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// now returns the timestamp format used for every persisted date column.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
