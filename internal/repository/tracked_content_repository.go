package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/crossflow/internal/models"
)

// ErrDuplicateContent maps the unique constraint on
// (connection_id, external_post_id): the item was already tracked.
var ErrDuplicateContent = errors.New("content already tracked")

type TrackedContentRepository interface {
	Create(ctx context.Context, tc *models.TrackedContent) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.TrackedContent, error)
	Exists(ctx context.Context, connectionID int64, externalPostID string) (bool, error)
	MarkProcessed(ctx context.Context, id int64) error
}

type trackedContentRepository struct {
	db *sql.DB
}

func NewTrackedContentRepository(db *sql.DB) TrackedContentRepository {
	return &trackedContentRepository{db: db}
}

func (r *trackedContentRepository) Create(ctx context.Context, tc *models.TrackedContent) (int64, error) {
	query := `
		INSERT INTO tracked_content(
			connection_id,
			external_post_id,
			content_type,
			url,
			title,
			caption,
			media_url,
			thumbnail_url,
			posted_at,
			processed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		tc.ConnectionID,
		tc.ExternalPostID,
		tc.ContentType,
		tc.URL,
		tc.Title,
		tc.Caption,
		tc.MediaURL,
		tc.ThumbnailURL,
		tc.PostedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicateContent
		}
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *trackedContentRepository) GetByID(ctx context.Context, id int64) (*models.TrackedContent, error) {
	query := `SELECT id, connection_id, external_post_id, content_type, url, title, caption,
		media_url, thumbnail_url, posted_at, processed, created_at
		FROM tracked_content WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var tc models.TrackedContent
	err := row.Scan(&tc.ID, &tc.ConnectionID, &tc.ExternalPostID, &tc.ContentType,
		&tc.URL, &tc.Title, &tc.Caption, &tc.MediaURL, &tc.ThumbnailURL,
		&tc.PostedAt, &tc.Processed, &tc.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &tc, nil
}

func (r *trackedContentRepository) Exists(ctx context.Context, connectionID int64, externalPostID string) (bool, error) {
	query := `SELECT 1 FROM tracked_content WHERE connection_id = $1 AND external_post_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, connectionID, externalPostID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *trackedContentRepository) MarkProcessed(ctx context.Context, id int64) error {
	query := `UPDATE tracked_content SET processed = TRUE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
