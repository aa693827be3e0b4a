package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/crossflow/internal/models"
)

type WorkflowRepository interface {
	Create(ctx context.Context, tx *sql.Tx, w *models.Workflow) (int64, error)
	CreateStep(ctx context.Context, tx *sql.Tx, s *models.WorkflowStep) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Workflow, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Workflow, error)
	ListActiveByTriggerConnection(ctx context.Context, connectionID int64, condition string) ([]*models.Workflow, error)
	ListSteps(ctx context.Context, workflowID int64) ([]*models.WorkflowStep, error)
	CountByTriggerConnection(ctx context.Context, connectionID int64) (int, error)
	CheckByUserID(ctx context.Context, workflowID, userID int64) (bool, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Remove(ctx context.Context, id int64) error
}

type workflowRepository struct {
	db *sql.DB
}

func NewWorkflowRepository(db *sql.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func (r *workflowRepository) Create(ctx context.Context, tx *sql.Tx, w *models.Workflow) (int64, error) {
	var err error
	var id int64

	var insertQuery = `
		INSERT INTO workflows(user_id, name, trigger_connection_id, trigger_condition, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	args := []interface{}{w.UserID, w.Name, w.TriggerConnectionID, w.TriggerCondition, w.IsActive}

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

func (r *workflowRepository) CreateStep(ctx context.Context, tx *sql.Tx, s *models.WorkflowStep) (int64, error) {
	var err error
	var id int64

	var insertQuery = `
		INSERT INTO workflow_steps(workflow_id, step_order, kind, target_connection_id, config)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	args := []interface{}{s.WorkflowID, s.StepOrder, s.Kind, s.TargetConnectionID, s.Config}

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

func (r *workflowRepository) GetByID(ctx context.Context, id int64) (*models.Workflow, error) {
	query := `SELECT id, user_id, name, trigger_connection_id, trigger_condition, is_active, created_at, updated_at
		FROM workflows WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var w models.Workflow
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.TriggerConnectionID,
		&w.TriggerCondition, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &w, nil
}

func (r *workflowRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Workflow, error) {
	query := `SELECT id, user_id, name, trigger_connection_id, trigger_condition, is_active, created_at, updated_at
		FROM workflows WHERE user_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		var w models.Workflow
		err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.TriggerConnectionID,
			&w.TriggerCondition, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		workflows = append(workflows, &w)
	}
	return workflows, nil
}

func (r *workflowRepository) ListActiveByTriggerConnection(ctx context.Context, connectionID int64, condition string) ([]*models.Workflow, error) {
	query := `SELECT id, user_id, name, trigger_connection_id, trigger_condition, is_active, created_at, updated_at
		FROM workflows
		WHERE trigger_connection_id = $1 AND trigger_condition = $2 AND is_active = TRUE
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, connectionID, condition)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		var w models.Workflow
		err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.TriggerConnectionID,
			&w.TriggerCondition, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		workflows = append(workflows, &w)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return workflows, nil
}

func (r *workflowRepository) ListSteps(ctx context.Context, workflowID int64) ([]*models.WorkflowStep, error) {
	query := `SELECT id, workflow_id, step_order, kind, target_connection_id, config, created_at
		FROM workflow_steps WHERE workflow_id = $1 ORDER BY step_order ASC`
	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var steps []*models.WorkflowStep
	for rows.Next() {
		var s models.WorkflowStep
		err := rows.Scan(&s.ID, &s.WorkflowID, &s.StepOrder, &s.Kind,
			&s.TargetConnectionID, &s.Config, &s.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		steps = append(steps, &s)
	}
	return steps, nil
}

func (r *workflowRepository) CountByTriggerConnection(ctx context.Context, connectionID int64) (int, error) {
	query := `SELECT COUNT(*) FROM workflows WHERE trigger_connection_id = $1`

	var count int
	err := r.db.QueryRowContext(ctx, query, connectionID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return count, nil
}

func (r *workflowRepository) CheckByUserID(ctx context.Context, workflowID, userID int64) (bool, error) {
	query := `SELECT 1 FROM workflows WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, workflowID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *workflowRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE workflows SET is_active = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *workflowRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM workflows WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
