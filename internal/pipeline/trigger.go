package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/repository"
)

// TriggerMatcher finds active workflows bound to a source connection and
// fires a run per match. Matching itself has no side effects beyond run
// creation; one workflow's failure never touches another's run.
type TriggerMatcher struct {
	wr   repository.WorkflowRepository
	rr   repository.WorkflowRunRepository
	al   repository.ActivityLogRepository
	exec *Executor
}

func NewTriggerMatcher(
	wr repository.WorkflowRepository,
	rr repository.WorkflowRunRepository,
	al repository.ActivityLogRepository,
	exec *Executor) *TriggerMatcher {
	return &TriggerMatcher{
		wr:   wr,
		rr:   rr,
		al:   al,
		exec: exec,
	}
}

// MatchAndRun fires every active workflow whose trigger is the source
// connection. Returns the number of runs created.
func (m *TriggerMatcher) MatchAndRun(ctx context.Context, conn *models.Connection, content *models.TrackedContent) (int, error) {
	workflows, err := m.wr.ListActiveByTriggerConnection(ctx, conn.ID, models.TriggerNewPost)
	if err != nil {
		return 0, fmt.Errorf("error matching workflows: %w", err)
	}

	triggered := 0
	for _, workflow := range workflows {
		run := &models.WorkflowRun{
			WorkflowID:       workflow.ID,
			ContentID:        content.ID,
			Status:           models.RunStatusPending,
			TriggerCaption:   content.Caption,
			TriggerTitle:     content.Title,
			TriggerURL:       content.URL,
			TriggerMediaURL:  content.MediaURL,
			TriggerThumbnail: content.ThumbnailURL,
			ContentType:      content.ContentType,
		}

		runID, err := m.rr.CreateRun(ctx, run)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		run.ID = runID
		triggered++

		_, err = m.al.Create(ctx, &models.ActivityLogEntry{
			UserID:             workflow.UserID,
			EventType:          models.EventWorkflowTriggered,
			SourceConnectionID: conn.ID,
			WorkflowID:         workflow.ID,
			ContentID:          content.ID,
			Message:            fmt.Sprintf("Workflow %q triggered by new content", workflow.Name),
		})
		if err != nil {
			slog.Info(err.Error())
		}

		steps, err := m.wr.ListSteps(ctx, workflow.ID)
		if err != nil {
			slog.Info(err.Error())
			if updateErr := m.rr.UpdateRunStatus(ctx, runID, models.RunStatusFailed, err.Error()); updateErr != nil {
				slog.Info(updateErr.Error())
			}
			continue
		}

		if err := m.exec.Execute(ctx, workflow, run, steps); err != nil {
			slog.Info(err.Error())
		}
	}

	return triggered, nil
}
