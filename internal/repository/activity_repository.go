package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/crossflow/internal/models"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, e *models.ActivityLogEntry) (int64, error)
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.ActivityLogEntry, error)
}

type activityLogRepository struct {
	db *sql.DB
}

func NewActivityLogRepository(db *sql.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, e *models.ActivityLogEntry) (int64, error) {
	query := `
		INSERT INTO activity_log(user_id, event_type, source_connection_id, target_connection_id, workflow_id, content_id, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		e.UserID,
		e.EventType,
		e.SourceConnectionID,
		e.TargetConnectionID,
		e.WorkflowID,
		e.ContentID,
		e.Message,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *activityLogRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, event_type, source_connection_id, target_connection_id,
		workflow_id, content_id, message, created_at
		FROM activity_log WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.ActivityLogEntry
	for rows.Next() {
		var e models.ActivityLogEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.EventType, &e.SourceConnectionID,
			&e.TargetConnectionID, &e.WorkflowID, &e.ContentID, &e.Message, &e.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, nil
}
