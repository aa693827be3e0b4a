package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/crossflow/internal/models"
)

func (q *Queue) HandlePollSweepTask(ctx context.Context, task *asynq.Task) error {
	var payload PollSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if payload.ConnectionID != 0 {
		conn, err := q.cr.GetByID(ctx, payload.ConnectionID)
		if err != nil {
			return err
		}
		if conn == nil {
			return fmt.Errorf("connection %d not found", payload.ConnectionID)
		}
		result := q.poller.PollConnection(ctx, conn)
		slog.Info("poll sweep finished",
			"connection_id", conn.ID,
			"new_content", result.NewContentCount,
			"workflows_triggered", result.WorkflowsTriggered,
			"errors", len(result.Errors))
		return nil
	}

	results, err := q.poller.PollAll(ctx)
	if err != nil {
		return err
	}
	slog.Info("poll sweep finished", "connections", len(results))
	return nil
}

// HandleMediaCleanupTask deletes a re-hosted media object. A returned error
// makes asynq redeliver the task, so transient storage failures retry.
func (q *Queue) HandleMediaCleanupTask(ctx context.Context, task *asynq.Task) error {
	var payload MediaCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	err := q.media.Delete(ctx, payload.Key)
	if err != nil {
		q.logCleanup(ctx, payload, models.EventMediaCleanupFailed, err.Error())
		return err
	}

	q.logCleanup(ctx, payload, models.EventMediaCleanupCompleted, "")
	return nil
}

func (q *Queue) logCleanup(ctx context.Context, payload MediaCleanupPayload, eventType, message string) {
	if message == "" {
		message = fmt.Sprintf("media object %s removed", payload.Key)
	}
	_, err := q.al.Create(ctx, &models.ActivityLogEntry{
		UserID:    payload.UserID,
		EventType: eventType,
		Message:   message,
	})
	if err != nil {
		slog.Info(err.Error())
	}
}
