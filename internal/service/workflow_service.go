package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/repository"
	"github.com/maheshrc27/crossflow/internal/transfer"
)

type WorkflowService interface {
	Create(ctx context.Context, userID int64, wc *transfer.WorkflowCreation) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.Workflow, error)
	WorkflowInfo(ctx context.Context, userID, workflowID int64) (*models.Workflow, []*models.WorkflowStep, error)
	Runs(ctx context.Context, userID, workflowID int64) ([]*models.WorkflowRun, error)
	SetActive(ctx context.Context, userID, workflowID int64, active bool) error
	Remove(ctx context.Context, userID, workflowID int64) error
}

type workflowService struct {
	db *sql.DB
	wr repository.WorkflowRepository
	rr repository.WorkflowRunRepository
	cr repository.ConnectionRepository
}

func NewWorkflowService(
	db *sql.DB,
	wr repository.WorkflowRepository,
	rr repository.WorkflowRunRepository,
	cr repository.ConnectionRepository) WorkflowService {
	return &workflowService{
		db: db,
		wr: wr,
		rr: rr,
		cr: cr,
	}
}

func (s *workflowService) Create(ctx context.Context, userID int64, wc *transfer.WorkflowCreation) (int64, error) {
	if wc == nil {
		err := errors.New("workflow creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if wc.Name == "" {
		err := errors.New("workflow name cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}
	if len(wc.Steps) == 0 {
		err := errors.New("workflow must have at least one step")
		slog.Info(err.Error())
		return 0, err
	}

	owned, err := s.cr.CheckByUserID(ctx, wc.TriggerConnectionID, userID)
	if err != nil {
		return 0, err
	}
	if !owned {
		err = errors.New("trigger connection not found")
		slog.Info(err.Error())
		return 0, err
	}

	for _, step := range wc.Steps {
		switch step.Kind {
		case models.StepKindPublish:
			if step.TargetConnectionID == 0 {
				err = errors.New("publish step requires a target connection")
				slog.Info(err.Error())
				return 0, err
			}
			owned, err = s.cr.CheckByUserID(ctx, step.TargetConnectionID, userID)
			if err != nil {
				return 0, err
			}
			if !owned {
				err = fmt.Errorf("target connection %d not found", step.TargetConnectionID)
				slog.Info(err.Error())
				return 0, err
			}
		case models.StepKindAIRewrite, models.StepKindDelay:
		default:
			err = fmt.Errorf("unknown step kind: %s", step.Kind)
			slog.Info(err.Error())
			return 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	defer tx.Rollback()

	workflowID, err := s.wr.Create(ctx, tx, &models.Workflow{
		UserID:              userID,
		Name:                wc.Name,
		TriggerConnectionID: wc.TriggerConnectionID,
		TriggerCondition:    models.TriggerNewPost,
		IsActive:            true,
	})
	if err != nil {
		return 0, err
	}

	for i, step := range wc.Steps {
		_, err = s.wr.CreateStep(ctx, tx, &models.WorkflowStep{
			WorkflowID:         workflowID,
			StepOrder:          i + 1,
			Kind:               step.Kind,
			TargetConnectionID: step.TargetConnectionID,
			Config:             step.Config,
		})
		if err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return workflowID, nil
}

func (s *workflowService) List(ctx context.Context, userID int64) ([]*models.Workflow, error) {
	return s.wr.ListByUserID(ctx, userID)
}

func (s *workflowService) WorkflowInfo(ctx context.Context, userID, workflowID int64) (*models.Workflow, []*models.WorkflowStep, error) {
	owned, err := s.wr.CheckByUserID(ctx, workflowID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !owned {
		return nil, nil, errors.New("workflow not found")
	}

	workflow, err := s.wr.GetByID(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}
	if workflow == nil {
		return nil, nil, errors.New("workflow not found")
	}

	steps, err := s.wr.ListSteps(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}

	return workflow, steps, nil
}

func (s *workflowService) Runs(ctx context.Context, userID, workflowID int64) ([]*models.WorkflowRun, error) {
	owned, err := s.wr.CheckByUserID(ctx, workflowID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, errors.New("workflow not found")
	}

	return s.rr.ListByWorkflowID(ctx, workflowID)
}

func (s *workflowService) SetActive(ctx context.Context, userID, workflowID int64, active bool) error {
	owned, err := s.wr.CheckByUserID(ctx, workflowID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("workflow not found")
	}

	return s.wr.SetActive(ctx, workflowID, active)
}

func (s *workflowService) Remove(ctx context.Context, userID, workflowID int64) error {
	owned, err := s.wr.CheckByUserID(ctx, workflowID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("workflow not found")
	}

	return s.wr.Remove(ctx, workflowID)
}
