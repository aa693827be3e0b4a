package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/platform"
	"github.com/maheshrc27/crossflow/internal/repository"
	"github.com/maheshrc27/crossflow/internal/transfer"
)

// MediaRehoster copies source media to storage the pipeline controls and
// returns a stable public URL plus the storage key.
type MediaRehoster interface {
	Rehost(ctx context.Context, sourceURL string) (publicURL, key string, err error)
}

// CleanupScheduler schedules deferred deletion of a re-hosted media object.
type CleanupScheduler interface {
	ScheduleMediaCleanup(key string, runID, userID int64) error
}

// Executor runs a workflow run's steps in strict ascending order,
// synchronously, halting at the first failed step. Every attempted step
// leaves a WorkflowStepRun, so halted runs keep a full trace.
type Executor struct {
	cr      repository.ConnectionRepository
	rr      repository.WorkflowRunRepository
	pr      repository.PostRepository
	al      repository.ActivityLogRepository
	reg     *platform.Registry
	media   MediaRehoster
	cleanup CleanupScheduler
}

func NewExecutor(
	cr repository.ConnectionRepository,
	rr repository.WorkflowRunRepository,
	pr repository.PostRepository,
	al repository.ActivityLogRepository,
	reg *platform.Registry,
	media MediaRehoster,
	cleanup CleanupScheduler) *Executor {
	return &Executor{
		cr:      cr,
		rr:      rr,
		pr:      pr,
		al:      al,
		reg:     reg,
		media:   media,
		cleanup: cleanup,
	}
}

type stepOutcome struct {
	success        bool
	platformPostID string
	platformURL    string
	errMessage     string
}

func (e *Executor) Execute(ctx context.Context, workflow *models.Workflow, run *models.WorkflowRun, steps []*models.WorkflowStep) error {
	if err := e.rr.UpdateRunStatus(ctx, run.ID, models.RunStatusRunning, ""); err != nil {
		slog.Info(err.Error())
	}

	rehostedURL := ""
	rehostKey := ""

	var firstError string
	for _, step := range steps {
		startedAt := time.Now()

		var outcome stepOutcome
		switch step.Kind {
		case models.StepKindPublish:
			// Re-host the trigger media once per run so targets pull from a
			// URL the pipeline controls.
			if rehostedURL == "" && run.TriggerMediaURL != "" && e.media != nil {
				url, key, err := e.media.Rehost(ctx, run.TriggerMediaURL)
				if err != nil {
					outcome = stepOutcome{errMessage: fmt.Sprintf("error re-hosting media: %v", err)}
					break
				}
				rehostedURL, rehostKey = url, key
			}
			outcome = e.executePublishStep(ctx, workflow, run, step, rehostedURL)
		case models.StepKindDelay, models.StepKindAIRewrite:
			// Reserved extension points: recorded as succeeded pass-throughs.
			outcome = stepOutcome{success: true}
		default:
			outcome = stepOutcome{errMessage: fmt.Sprintf("unknown step kind %q", step.Kind)}
		}

		status := models.RunStatusCompleted
		if !outcome.success {
			status = models.RunStatusFailed
		}

		input, _ := json.Marshal(map[string]string{
			"caption":   run.TriggerCaption,
			"url":       run.TriggerURL,
			"media_url": run.TriggerMediaURL,
		})

		_, err := e.rr.CreateStepRun(ctx, &models.WorkflowStepRun{
			RunID:          run.ID,
			StepID:         step.ID,
			Status:         status,
			Input:          string(input),
			PlatformPostID: outcome.platformPostID,
			PlatformURL:    outcome.platformURL,
			Error:          outcome.errMessage,
			StartedAt:      startedAt,
			CompletedAt:    time.Now(),
		})
		if err != nil {
			slog.Info(err.Error())
		}

		if !outcome.success {
			firstError = outcome.errMessage
			break
		}
	}

	if firstError != "" {
		if err := e.rr.UpdateRunStatus(ctx, run.ID, models.RunStatusFailed, firstError); err != nil {
			slog.Info(err.Error())
		}
		return fmt.Errorf("workflow run %d failed: %s", run.ID, firstError)
	}

	if err := e.rr.UpdateRunStatus(ctx, run.ID, models.RunStatusCompleted, ""); err != nil {
		slog.Info(err.Error())
	}

	if rehostKey != "" && e.cleanup != nil {
		if err := e.cleanup.ScheduleMediaCleanup(rehostKey, run.ID, workflow.UserID); err != nil {
			slog.Info(err.Error())
		}
	}

	return nil
}

func (e *Executor) executePublishStep(ctx context.Context, workflow *models.Workflow, run *models.WorkflowRun, step *models.WorkflowStep, rehostedURL string) stepOutcome {
	var cfg transfer.PublishConfig
	if step.Config != "" {
		if err := json.Unmarshal([]byte(step.Config), &cfg); err != nil {
			return stepOutcome{errMessage: fmt.Sprintf("invalid step config: %v", err)}
		}
	}

	if step.TargetConnectionID == 0 {
		return stepOutcome{errMessage: "publish step has no target connection"}
	}

	target, err := e.cr.GetByID(ctx, step.TargetConnectionID)
	if err != nil {
		return stepOutcome{errMessage: fmt.Sprintf("error resolving target connection: %v", err)}
	}
	if target == nil {
		return stepOutcome{errMessage: fmt.Sprintf("target connection %d not found", step.TargetConnectionID)}
	}

	publisher, err := e.reg.Publisher(target.Platform)
	if err != nil {
		return stepOutcome{errMessage: fmt.Sprintf("platform %s: %v", target.Platform, err)}
	}

	caption := effectiveCaption(cfg, run.TriggerCaption)

	opts := platform.PublishOptions{
		Caption:        caption,
		Privacy:        cfg.Privacy,
		Tags:           cfg.Tags,
		DisableComment: cfg.DisableComment,
		MediaURL:       rehostedURL,
	}

	// Platforms with structured metadata get the caption split: first line
	// becomes the title, the remainder the description.
	if target.Platform == models.PlatformYoutube {
		opts.Title, opts.Caption = splitCaption(caption, run.TriggerTitle)
	}

	content := platform.ContentItem{
		ExternalID:   run.TriggerURL,
		Type:         run.ContentType,
		Title:        run.TriggerTitle,
		Caption:      run.TriggerCaption,
		URL:          run.TriggerURL,
		MediaURL:     run.TriggerMediaURL,
		ThumbnailURL: run.TriggerThumbnail,
	}

	_, err = e.al.Create(ctx, &models.ActivityLogEntry{
		UserID:             workflow.UserID,
		EventType:          models.EventCrossPostStarted,
		TargetConnectionID: target.ID,
		WorkflowID:         workflow.ID,
		ContentID:          run.ContentID,
		Message:            fmt.Sprintf("Cross-posting to %s", target.Platform),
	})
	if err != nil {
		slog.Info(err.Error())
	}

	result := publisher.Publish(ctx, target, content, opts)
	if !result.Success {
		_, logErr := e.al.Create(ctx, &models.ActivityLogEntry{
			UserID:             workflow.UserID,
			EventType:          models.EventCrossPostFailed,
			TargetConnectionID: target.ID,
			WorkflowID:         workflow.ID,
			ContentID:          run.ContentID,
			Message:            fmt.Sprintf("Cross-post to %s failed: %s", target.Platform, result.Error),
		})
		if logErr != nil {
			slog.Info(logErr.Error())
		}
		return stepOutcome{errMessage: result.Error}
	}

	_, err = e.pr.Create(ctx, &models.Post{
		UserID:             workflow.UserID,
		WorkflowRunID:      run.ID,
		TargetConnectionID: target.ID,
		Platform:           target.Platform,
		PlatformPostID:     result.PlatformPostID,
		PlatformURL:        result.PlatformURL,
		Caption:            caption,
	})
	if err != nil {
		slog.Info(err.Error())
	}

	_, err = e.al.Create(ctx, &models.ActivityLogEntry{
		UserID:             workflow.UserID,
		EventType:          models.EventCrossPostCompleted,
		TargetConnectionID: target.ID,
		WorkflowID:         workflow.ID,
		ContentID:          run.ContentID,
		Message:            fmt.Sprintf("Cross-posted to %s: %s", target.Platform, result.PlatformURL),
	})
	if err != nil {
		slog.Info(err.Error())
	}

	return stepOutcome{
		success:        true,
		platformPostID: result.PlatformPostID,
		platformURL:    result.PlatformURL,
	}
}

// effectiveCaption applies the step's caption policy. The custom caption
// falls back to the trigger caption when unset, never to an empty string.
func effectiveCaption(cfg transfer.PublishConfig, triggerCaption string) string {
	if cfg.UseOriginalCaption {
		return triggerCaption
	}
	if cfg.CustomCaption != "" {
		return cfg.CustomCaption
	}
	return triggerCaption
}

// splitCaption turns a flat caption into (title, description) for platforms
// that expect structured metadata.
func splitCaption(caption, fallbackTitle string) (string, string) {
	trimmed := strings.TrimSpace(caption)
	if trimmed == "" {
		return fallbackTitle, ""
	}

	parts := strings.SplitN(trimmed, "\n", 2)
	title := strings.TrimSpace(parts[0])
	description := ""
	if len(parts) > 1 {
		description = strings.TrimSpace(parts[1])
	}

	if title == "" {
		title = fallbackTitle
	}
	// YouTube caps titles at 100 characters.
	if len(title) > 100 {
		title = title[:97] + "..."
	}

	return title, description
}
