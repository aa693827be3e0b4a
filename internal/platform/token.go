package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/repository"
	"github.com/maheshrc27/crossflow/pkg/utils"
)

// ErrTokenConflict surfaces a lost refresh race to the caller so the sweep
// can skip the connection instead of overwriting a fresher credential.
var ErrTokenConflict = errors.New("credential refreshed concurrently")

type oauthToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type refreshFunc func(ctx context.Context, refreshToken string) (*oauthToken, error)

// credentials handles decryption and proactive refresh of a connection's
// token pair. Persisting goes through the conditional update keyed on the
// previously read ciphertext.
type Credentials struct {
	cr      repository.ConnectionRepository
	secret  []byte
	horizon time.Duration
}

func NewCredentials(cr repository.ConnectionRepository, secret []byte, horizon time.Duration) *Credentials {
	return &Credentials{cr: cr, secret: secret, horizon: horizon}
}

// ensure returns a usable plaintext access token for conn, refreshing first
// when expiry falls inside the horizon and a refresh token exists. Without a
// refresh token the current token is returned unchanged; failure is deferred
// to the actual API call.
func (c *Credentials) ensure(ctx context.Context, conn *models.Connection, refresh refreshFunc) (string, error) {
	access, err := utils.Decrypt(conn.AccessToken, c.secret)
	if err != nil {
		return "", err
	}

	if time.Until(conn.TokenExpiresAt) > c.horizon {
		return access, nil
	}
	if conn.RefreshToken == "" || refresh == nil {
		return access, nil
	}

	refreshToken, err := utils.Decrypt(conn.RefreshToken, c.secret)
	if err != nil {
		return "", err
	}

	token, err := refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	encryptedAccess, err := utils.Encrypt([]byte(token.AccessToken), c.secret)
	if err != nil {
		return "", err
	}

	encryptedRefresh := ""
	if token.RefreshToken != "" {
		encryptedRefresh, err = utils.Encrypt([]byte(token.RefreshToken), c.secret)
		if err != nil {
			return "", err
		}
	}

	err = c.cr.UpdateTokens(ctx, conn.ID, conn.AccessToken, encryptedAccess, encryptedRefresh, token.ExpiresAt)
	if err != nil {
		if errors.Is(err, repository.ErrTokenConflict) {
			// Keep both sentinels in the chain: callers on either side of
			// the package boundary match with errors.Is.
			return "", fmt.Errorf("%w: %w", ErrTokenConflict, err)
		}
		return "", err
	}

	conn.AccessToken = encryptedAccess
	if encryptedRefresh != "" {
		conn.RefreshToken = encryptedRefresh
	}
	conn.TokenExpiresAt = token.ExpiresAt

	return token.AccessToken, nil
}
