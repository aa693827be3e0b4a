package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/crossflow/internal/models"
)

type WorkflowRunRepository interface {
	CreateRun(ctx context.Context, run *models.WorkflowRun) (int64, error)
	UpdateRunStatus(ctx context.Context, id int64, status, errorMessage string) error
	CreateStepRun(ctx context.Context, sr *models.WorkflowStepRun) (int64, error)
	ListByWorkflowID(ctx context.Context, workflowID int64) ([]*models.WorkflowRun, error)
	ListStepRuns(ctx context.Context, runID int64) ([]*models.WorkflowStepRun, error)
}

type workflowRunRepository struct {
	db *sql.DB
}

func NewWorkflowRunRepository(db *sql.DB) WorkflowRunRepository {
	return &workflowRunRepository{db: db}
}

func (r *workflowRunRepository) CreateRun(ctx context.Context, run *models.WorkflowRun) (int64, error) {
	query := `
		INSERT INTO workflow_runs(
			workflow_id,
			content_id,
			status,
			trigger_caption,
			trigger_title,
			trigger_url,
			trigger_media_url,
			trigger_thumbnail_url,
			content_type
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		run.WorkflowID,
		run.ContentID,
		run.Status,
		run.TriggerCaption,
		run.TriggerTitle,
		run.TriggerURL,
		run.TriggerMediaURL,
		run.TriggerThumbnail,
		run.ContentType,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *workflowRunRepository) UpdateRunStatus(ctx context.Context, id int64, status, errorMessage string) error {
	query := `
		UPDATE workflow_runs
		SET
			status = $2,
			error_message = $3,
			started_at = CASE WHEN $2 = 'running' THEN CURRENT_TIMESTAMP ELSE started_at END,
			completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN CURRENT_TIMESTAMP ELSE completed_at END
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, status, errorMessage)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *workflowRunRepository) CreateStepRun(ctx context.Context, sr *models.WorkflowStepRun) (int64, error) {
	query := `
		INSERT INTO workflow_step_runs(
			run_id,
			step_id,
			status,
			input,
			platform_post_id,
			platform_url,
			error_message,
			started_at,
			completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		sr.RunID,
		sr.StepID,
		sr.Status,
		sr.Input,
		sr.PlatformPostID,
		sr.PlatformURL,
		sr.Error,
		sr.StartedAt,
		sr.CompletedAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *workflowRunRepository) ListByWorkflowID(ctx context.Context, workflowID int64) ([]*models.WorkflowRun, error) {
	query := `SELECT id, workflow_id, content_id, status, trigger_caption, trigger_title,
		trigger_url, trigger_media_url, trigger_thumbnail_url, content_type,
		COALESCE(error_message, ''), COALESCE(started_at, to_timestamp(0)),
		COALESCE(completed_at, to_timestamp(0)), created_at
		FROM workflow_runs WHERE workflow_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var runs []*models.WorkflowRun
	for rows.Next() {
		var run models.WorkflowRun
		err := rows.Scan(&run.ID, &run.WorkflowID, &run.ContentID, &run.Status,
			&run.TriggerCaption, &run.TriggerTitle, &run.TriggerURL,
			&run.TriggerMediaURL, &run.TriggerThumbnail, &run.ContentType,
			&run.Error, &run.StartedAt, &run.CompletedAt, &run.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, nil
}

func (r *workflowRunRepository) ListStepRuns(ctx context.Context, runID int64) ([]*models.WorkflowStepRun, error) {
	query := `SELECT id, run_id, step_id, status, input, platform_post_id, platform_url,
		COALESCE(error_message, ''), started_at, completed_at
		FROM workflow_step_runs WHERE run_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var stepRuns []*models.WorkflowStepRun
	for rows.Next() {
		var sr models.WorkflowStepRun
		err := rows.Scan(&sr.ID, &sr.RunID, &sr.StepID, &sr.Status, &sr.Input,
			&sr.PlatformPostID, &sr.PlatformURL, &sr.Error, &sr.StartedAt, &sr.CompletedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		stepRuns = append(stepRuns, &sr)
	}
	return stepRuns, nil
}
