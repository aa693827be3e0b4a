package platform

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/repository"
	"github.com/maheshrc27/crossflow/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeConnectionRepo struct {
	updateErr     error
	updateCalls   int
	lastID        int64
	lastOldAccess string
	lastAccess    string
	lastRefresh   string
	lastExpiry    time.Time
}

func (f *fakeConnectionRepo) Create(ctx context.Context, tx *sql.Tx, c *models.Connection) (int64, error) {
	return 0, nil
}
func (f *fakeConnectionRepo) GetByID(ctx context.Context, id int64) (*models.Connection, error) {
	return nil, nil
}
func (f *fakeConnectionRepo) ListActive(ctx context.Context) ([]*models.Connection, error) {
	return nil, nil
}
func (f *fakeConnectionRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	return nil, nil
}
func (f *fakeConnectionRepo) ListExpiringTokens(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error) {
	return nil, nil
}
func (f *fakeConnectionRepo) CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error) {
	return false, nil
}
func (f *fakeConnectionRepo) UpdateTokens(ctx context.Context, id int64, oldAccessToken, accessToken, refreshToken string, expiresAt time.Time) error {
	f.updateCalls++
	f.lastID = id
	f.lastOldAccess = oldAccessToken
	f.lastAccess = accessToken
	f.lastRefresh = refreshToken
	f.lastExpiry = expiresAt
	return f.updateErr
}
func (f *fakeConnectionRepo) UpdateLastSynced(ctx context.Context, id int64, syncedAt time.Time) error {
	return nil
}
func (f *fakeConnectionRepo) SetActive(ctx context.Context, id int64, active bool) error { return nil }
func (f *fakeConnectionRepo) Remove(ctx context.Context, id int64) error                 { return nil }

func encryptedConnection(t *testing.T, expiresIn time.Duration) *models.Connection {
	t.Helper()

	access, err := utils.Encrypt([]byte("old-access"), testSecret)
	require.NoError(t, err)
	refresh, err := utils.Encrypt([]byte("old-refresh"), testSecret)
	require.NoError(t, err)

	return &models.Connection{
		ID:             7,
		Platform:       models.PlatformYoutube,
		AccessToken:    access,
		RefreshToken:   refresh,
		TokenExpiresAt: time.Now().Add(expiresIn),
	}
}

func TestEnsureReturnsTokenOutsideHorizon(t *testing.T) {
	repo := &fakeConnectionRepo{}
	creds := NewCredentials(repo, testSecret, 5*time.Minute)
	conn := encryptedConnection(t, 10*time.Minute)

	refreshCalled := false
	access, err := creds.ensure(context.Background(), conn, func(ctx context.Context, refreshToken string) (*oauthToken, error) {
		refreshCalled = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "old-access", access)
	assert.False(t, refreshCalled)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestEnsureRefreshesInsideHorizon(t *testing.T) {
	repo := &fakeConnectionRepo{}
	creds := NewCredentials(repo, testSecret, 5*time.Minute)
	conn := encryptedConnection(t, 4*time.Minute)
	oldCiphertext := conn.AccessToken

	newExpiry := time.Now().Add(1 * time.Hour)
	access, err := creds.ensure(context.Background(), conn, func(ctx context.Context, refreshToken string) (*oauthToken, error) {
		assert.Equal(t, "old-refresh", refreshToken)
		return &oauthToken{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresAt:    newExpiry,
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new-access", access)

	require.Equal(t, 1, repo.updateCalls)
	assert.Equal(t, int64(7), repo.lastID)
	// The conditional update is keyed on the ciphertext that was read.
	assert.Equal(t, oldCiphertext, repo.lastOldAccess)
	assert.Equal(t, newExpiry, repo.lastExpiry)

	// The in-memory connection carries the new encrypted pair.
	plain, err := utils.Decrypt(conn.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "new-access", plain)
	assert.Equal(t, newExpiry, conn.TokenExpiresAt)
}

func TestEnsureWithoutRefreshTokenReturnsCurrent(t *testing.T) {
	repo := &fakeConnectionRepo{}
	creds := NewCredentials(repo, testSecret, 5*time.Minute)
	conn := encryptedConnection(t, 2*time.Minute)
	conn.RefreshToken = ""

	access, err := creds.ensure(context.Background(), conn, func(ctx context.Context, refreshToken string) (*oauthToken, error) {
		t.Fatal("refresh must not be called without a refresh token")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "old-access", access)
}

func TestEnsureSurfacesTokenConflict(t *testing.T) {
	repo := &fakeConnectionRepo{updateErr: repository.ErrTokenConflict}
	creds := NewCredentials(repo, testSecret, 5*time.Minute)
	conn := encryptedConnection(t, 1*time.Minute)

	_, err := creds.ensure(context.Background(), conn, func(ctx context.Context, refreshToken string) (*oauthToken, error) {
		return &oauthToken{AccessToken: "new-access", ExpiresAt: time.Now().Add(time.Hour)}, nil
	})
	assert.ErrorIs(t, err, ErrTokenConflict)
	// The repository sentinel stays in the chain for callers that match on it.
	assert.ErrorIs(t, err, repository.ErrTokenConflict)
}
