package service

import (
	"context"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/repository"
)

type ActivityService interface {
	Feed(ctx context.Context, userID int64, limit int) ([]*models.ActivityLogEntry, error)
	Posts(ctx context.Context, userID int64) ([]*models.Post, error)
}

type activityService struct {
	al repository.ActivityLogRepository
	pr repository.PostRepository
}

func NewActivityService(al repository.ActivityLogRepository, pr repository.PostRepository) ActivityService {
	return &activityService{
		al: al,
		pr: pr,
	}
}

func (s *activityService) Feed(ctx context.Context, userID int64, limit int) ([]*models.ActivityLogEntry, error) {
	return s.al.ListByUserID(ctx, userID, limit)
}

func (s *activityService) Posts(ctx context.Context, userID int64) ([]*models.Post, error) {
	return s.pr.ListByUserID(ctx, userID)
}
