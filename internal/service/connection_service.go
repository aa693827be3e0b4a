package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/repository"
)

type ConnectionService interface {
	List(ctx context.Context, userID int64) ([]*models.Connection, error)
	SetActive(ctx context.Context, userID, connectionID int64, active bool) error
	Disconnect(ctx context.Context, userID, connectionID int64) (int, error)
}

type connectionService struct {
	cr repository.ConnectionRepository
	wr repository.WorkflowRepository
}

func NewConnectionService(cr repository.ConnectionRepository, wr repository.WorkflowRepository) ConnectionService {
	return &connectionService{
		cr: cr,
		wr: wr,
	}
}

func (s *connectionService) List(ctx context.Context, userID int64) ([]*models.Connection, error) {
	connections, err := s.cr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Tokens never leave the service layer.
	for _, c := range connections {
		c.AccessToken = ""
		c.RefreshToken = ""
	}

	return connections, nil
}

func (s *connectionService) SetActive(ctx context.Context, userID, connectionID int64, active bool) error {
	owned, err := s.cr.CheckByUserID(ctx, connectionID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("connection not found")
	}

	return s.cr.SetActive(ctx, connectionID, active)
}

// Disconnect removes a connection and returns how many workflows referenced
// it as their trigger. Those workflows are removed by the foreign key cascade,
// so the caller can warn the user.
func (s *connectionService) Disconnect(ctx context.Context, userID, connectionID int64) (int, error) {
	owned, err := s.cr.CheckByUserID(ctx, connectionID, userID)
	if err != nil {
		return 0, err
	}
	if !owned {
		err = errors.New("connection not found")
		slog.Info(err.Error())
		return 0, err
	}

	dependents, err := s.wr.CountByTriggerConnection(ctx, connectionID)
	if err != nil {
		return 0, err
	}

	if err = s.cr.Remove(ctx, connectionID); err != nil {
		return 0, err
	}

	return dependents, nil
}
