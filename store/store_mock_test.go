package store

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/805Burner66/ECARE/entity"
)

// Driver-level failures are hard to provoke against a real sqlite file;
// sqlmock covers the error plumbing.

func TestInsertEntityWrapsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO canonical_entities").
		WillReturnError(assert.AnError)

	s := New(db, zap.NewNop().Sugar())
	err = s.InsertEntity(&entity.Entity{
		ID:            "PER-00001",
		Type:          entity.TypePerson,
		CanonicalName: "Someone Real",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PER-00001")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM canonical_entities").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	s := New(db, zap.NewNop().Sugar())
	err = s.WithTx(func(tx *Store) error {
		return tx.DeleteEntity("PER-00001")
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
