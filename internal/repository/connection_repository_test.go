package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTokensSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)

	expiry := time.Now().Add(time.Hour)
	mock.ExpectExec("UPDATE connections").
		WithArgs(int64(1), "old-cipher", "new-cipher", "new-refresh-cipher", expiry).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateTokens(context.Background(), 1, "old-cipher", "new-cipher", "new-refresh-cipher", expiry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTokensConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)

	// Zero rows matched: another refresher already replaced the credential.
	expiry := time.Now().Add(time.Hour)
	mock.ExpectExec("UPDATE connections").
		WithArgs(int64(1), "stale-cipher", "new-cipher", "", expiry).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateTokens(context.Background(), 1, "stale-cipher", "new-cipher", "", expiry)
	assert.ErrorIs(t, err, ErrTokenConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM connections WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	conn, err := repo.GetByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, conn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLastSynced(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConnectionRepository(db)

	syncedAt := time.Now()
	mock.ExpectExec("UPDATE connections SET last_synced_at").
		WithArgs(int64(3), syncedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLastSynced(context.Background(), 3, syncedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
