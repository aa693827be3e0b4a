package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/crossflow/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, p *models.Post) (int64, error) {
	query := `
		INSERT INTO posts(user_id, workflow_run_id, target_connection_id, platform, platform_post_id, platform_url, caption)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.UserID,
		p.WorkflowRunID,
		p.TargetConnectionID,
		p.Platform,
		p.PlatformPostID,
		p.PlatformURL,
		p.Caption,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT id, user_id, workflow_run_id, target_connection_id, platform,
		platform_post_id, platform_url, caption, created_at
		FROM posts WHERE user_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var p models.Post
		err := rows.Scan(&p.ID, &p.UserID, &p.WorkflowRunID, &p.TargetConnectionID,
			&p.Platform, &p.PlatformPostID, &p.PlatformURL, &p.Caption, &p.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &p)
	}
	return posts, nil
}
