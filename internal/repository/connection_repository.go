package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/crossflow/internal/models"
)

// ErrTokenConflict means a conditional token update matched zero rows: a
// concurrent refresher already replaced the credential this caller read.
var ErrTokenConflict = errors.New("token was updated concurrently")

type ConnectionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, c *models.Connection) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Connection, error)
	ListActive(ctx context.Context) ([]*models.Connection, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error)
	ListExpiringTokens(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error)
	CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error)
	UpdateTokens(ctx context.Context, id int64, oldAccessToken, accessToken, refreshToken string, expiresAt time.Time) error
	UpdateLastSynced(ctx context.Context, id int64, syncedAt time.Time) error
	SetActive(ctx context.Context, id int64, active bool) error
	Remove(ctx context.Context, id int64) error
}

type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `id, user_id, platform, account_id, account_name, account_username,
	profile_picture_url, access_token, refresh_token, token_expires_at,
	is_active, last_synced_at, metadata, created_at, updated_at`

func scanConnection(row interface{ Scan(...interface{}) error }) (*models.Connection, error) {
	var c models.Connection
	err := row.Scan(&c.ID, &c.UserID, &c.Platform, &c.AccountID, &c.AccountName,
		&c.AccountUsername, &c.ProfilePicture, &c.AccessToken, &c.RefreshToken,
		&c.TokenExpiresAt, &c.IsActive, &c.LastSyncedAt, &c.Metadata,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *connectionRepository) Create(ctx context.Context, tx *sql.Tx, c *models.Connection) (int64, error) {
	var err error
	var id int64

	var insertQuery = `
		INSERT INTO connections(
			user_id,
			platform,
			account_id,
			account_name,
			account_username,
			profile_picture_url,
			access_token,
			refresh_token,
			token_expires_at,
			is_active,
			metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	args := []interface{}{
		c.UserID, c.Platform, c.AccountID, c.AccountName, c.AccountUsername,
		c.ProfilePicture, c.AccessToken, c.RefreshToken, c.TokenExpiresAt,
		c.IsActive, c.Metadata,
	}

	if tx != nil {
		err = tx.QueryRowContext(ctx, insertQuery, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, insertQuery, args...).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id int64) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	c, err := scanConnection(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return c, nil
}

func (r *connectionRepository) ListActive(ctx context.Context) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE is_active = TRUE ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, c)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return connections, nil
}

func (r *connectionRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, c)
	}
	return connections, nil
}

func (r *connectionRepository) ListExpiringTokens(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM connections
		WHERE is_active = TRUE
		AND ((token_expires_at BETWEEN $1 AND $2) OR (token_expires_at < $1))`
	rows, err := r.db.QueryContext(ctx, query, initialTime, finalTime)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, c)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return connections, nil
}

func (r *connectionRepository) CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error) {
	query := `SELECT 1 FROM connections WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, connectionID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// UpdateTokens replaces the stored credential only if the caller still holds
// the current one. A concurrent refresh turns into ErrTokenConflict instead
// of a silent last-writer-wins overwrite.
func (r *connectionRepository) UpdateTokens(ctx context.Context, id int64, oldAccessToken, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE connections
		SET
			access_token = $3,
			refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
			token_expires_at = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND access_token = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, oldAccessToken, accessToken, refreshToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrTokenConflict
	}

	return nil
}

func (r *connectionRepository) UpdateLastSynced(ctx context.Context, id int64, syncedAt time.Time) error {
	query := `UPDATE connections SET last_synced_at = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, syncedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE connections SET is_active = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM connections WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
