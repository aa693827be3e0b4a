package pipeline

import (
	"context"
	"testing"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/platform"
	"github.com/maheshrc27/crossflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executorFixture(adapter *fakeAdapter, conns ...*models.Connection) (*Executor, *memRunRepo, *memPostRepo, *memActivityRepo, *fakeRehoster, *fakeCleanup) {
	connRepo := newMemConnectionRepo(conns...)
	runRepo := newMemRunRepo()
	postRepo := &memPostRepo{}
	activityRepo := &memActivityRepo{}
	rehoster := &fakeRehoster{url: "https://cdn.example.com/obj.mp4", key: "obj.mp4"}
	cleanup := &fakeCleanup{}

	reg := platform.NewRegistry(adapter)
	exec := NewExecutor(connRepo, runRepo, postRepo, activityRepo, reg, rehoster, cleanup)
	return exec, runRepo, postRepo, activityRepo, rehoster, cleanup
}

func publishStep(id int64, order int, target int64) *models.WorkflowStep {
	return &models.WorkflowStep{
		ID:                 id,
		WorkflowID:         1,
		StepOrder:          order,
		Kind:               models.StepKindPublish,
		TargetConnectionID: target,
	}
}

func TestExecuteRunsStepsInOrderAndHaltsOnFailure(t *testing.T) {
	target := &models.Connection{ID: 5, Platform: models.PlatformTiktok}
	adapter := &fakeAdapter{
		platform: models.PlatformTiktok,
		results: []platform.PublishResult{
			{Success: true, PlatformPostID: "a"},
			{Success: false, Error: "rate limited"},
		},
	}
	exec, runRepo, _, _, _, _ := executorFixture(adapter, target)

	workflow := &models.Workflow{ID: 1, UserID: 9}
	run := &models.WorkflowRun{ID: 1, TriggerCaption: "caption"}
	steps := []*models.WorkflowStep{
		publishStep(101, 1, 5),
		publishStep(102, 2, 5),
		publishStep(103, 3, 5),
	}

	err := exec.Execute(context.Background(), workflow, run, steps)
	require.Error(t, err)

	// Step three is never attempted once step two fails.
	assert.Len(t, adapter.publishCalls, 2)
	require.Len(t, runRepo.stepRuns, 2)
	assert.Equal(t, int64(101), runRepo.stepRuns[0].StepID)
	assert.Equal(t, models.RunStatusCompleted, runRepo.stepRuns[0].Status)
	assert.Equal(t, int64(102), runRepo.stepRuns[1].StepID)
	assert.Equal(t, models.RunStatusFailed, runRepo.stepRuns[1].Status)

	assert.Equal(t, models.RunStatusFailed, runRepo.finalStatus(1))
	assert.Equal(t, "rate limited", runRepo.errors[1])
}

func TestExecuteCompletedRunSchedulesCleanup(t *testing.T) {
	target := &models.Connection{ID: 5, Platform: models.PlatformTiktok}
	adapter := &fakeAdapter{platform: models.PlatformTiktok}
	exec, runRepo, postRepo, activityRepo, rehoster, cleanup := executorFixture(adapter, target)

	workflow := &models.Workflow{ID: 1, UserID: 9}
	run := &models.WorkflowRun{ID: 3, TriggerCaption: "caption", TriggerMediaURL: "https://source/video.mp4"}
	steps := []*models.WorkflowStep{
		publishStep(101, 1, 5),
		publishStep(102, 2, 5),
	}

	err := exec.Execute(context.Background(), workflow, run, steps)
	require.NoError(t, err)

	// Media re-hosted once for the whole run, not per step.
	assert.Equal(t, 1, rehoster.calls)
	require.Len(t, adapter.publishCalls, 2)
	assert.Equal(t, "https://cdn.example.com/obj.mp4", adapter.publishCalls[0].MediaURL)
	assert.Equal(t, "https://cdn.example.com/obj.mp4", adapter.publishCalls[1].MediaURL)

	assert.Equal(t, []string{"obj.mp4"}, cleanup.keys)
	assert.Equal(t, []int64{3}, cleanup.runIDs)
	assert.Equal(t, []int64{9}, cleanup.userIDs)

	assert.Equal(t, models.RunStatusCompleted, runRepo.finalStatus(3))
	assert.Len(t, postRepo.posts, 2)
	assert.Len(t, activityRepo.eventsOfType(models.EventCrossPostStarted), 2)
	assert.Len(t, activityRepo.eventsOfType(models.EventCrossPostCompleted), 2)
}

func TestPublishStepRecordsStartEvent(t *testing.T) {
	target := &models.Connection{ID: 5, Platform: models.PlatformTiktok}
	adapter := &fakeAdapter{
		platform: models.PlatformTiktok,
		results:  []platform.PublishResult{{Success: false, Error: "boom"}},
	}
	exec, _, _, activityRepo, _, _ := executorFixture(adapter, target)

	workflow := &models.Workflow{ID: 1, UserID: 9}
	err := exec.Execute(context.Background(), workflow, &models.WorkflowRun{ID: 1}, []*models.WorkflowStep{publishStep(101, 1, 5)})
	require.Error(t, err)

	// The start entry lands even when the publish itself fails.
	started := activityRepo.eventsOfType(models.EventCrossPostStarted)
	require.Len(t, started, 1)
	assert.Equal(t, int64(9), started[0].UserID)
	assert.Equal(t, int64(5), started[0].TargetConnectionID)
	assert.Len(t, activityRepo.eventsOfType(models.EventCrossPostFailed), 1)
}

func TestExecuteFailedRunDoesNotScheduleCleanup(t *testing.T) {
	target := &models.Connection{ID: 5, Platform: models.PlatformTiktok}
	adapter := &fakeAdapter{
		platform: models.PlatformTiktok,
		results:  []platform.PublishResult{{Success: false, Error: "boom"}},
	}
	exec, _, _, activityRepo, _, cleanup := executorFixture(adapter, target)

	workflow := &models.Workflow{ID: 1, UserID: 9}
	run := &models.WorkflowRun{ID: 3, TriggerMediaURL: "https://source/video.mp4"}

	err := exec.Execute(context.Background(), workflow, run, []*models.WorkflowStep{publishStep(101, 1, 5)})
	require.Error(t, err)

	assert.Empty(t, cleanup.keys)
	assert.Len(t, activityRepo.eventsOfType(models.EventCrossPostFailed), 1)
}

func TestExecutePassThroughStepKinds(t *testing.T) {
	adapter := &fakeAdapter{platform: models.PlatformTiktok}
	exec, runRepo, _, _, _, _ := executorFixture(adapter)

	workflow := &models.Workflow{ID: 1, UserID: 9}
	run := &models.WorkflowRun{ID: 1}
	steps := []*models.WorkflowStep{
		{ID: 101, StepOrder: 1, Kind: models.StepKindDelay},
		{ID: 102, StepOrder: 2, Kind: models.StepKindAIRewrite},
	}

	err := exec.Execute(context.Background(), workflow, run, steps)
	require.NoError(t, err)
	require.Len(t, runRepo.stepRuns, 2)
	assert.Equal(t, models.RunStatusCompleted, runRepo.stepRuns[0].Status)
	assert.Equal(t, models.RunStatusCompleted, runRepo.stepRuns[1].Status)
}

func TestExecutePublishStepStructuralErrors(t *testing.T) {
	adapter := &fakeAdapter{platform: models.PlatformTiktok}
	exec, runRepo, _, _, _, _ := executorFixture(adapter)

	workflow := &models.Workflow{ID: 1, UserID: 9}

	// Missing target connection id.
	err := exec.Execute(context.Background(), workflow, &models.WorkflowRun{ID: 1}, []*models.WorkflowStep{publishStep(101, 1, 0)})
	require.Error(t, err)
	assert.Contains(t, runRepo.errors[1], "no target connection")

	// Target connection does not exist.
	err = exec.Execute(context.Background(), workflow, &models.WorkflowRun{ID: 2}, []*models.WorkflowStep{publishStep(102, 1, 404)})
	require.Error(t, err)
	assert.Contains(t, runRepo.errors[2], "not found")

	assert.Empty(t, adapter.publishCalls)
}

func TestExecutePublishToNonPublishablePlatformFails(t *testing.T) {
	target := &models.Connection{ID: 5, Platform: models.PlatformTiktok}
	// Registry knows no adapter for the target platform.
	reg := platform.NewRegistry()
	exec := NewExecutor(newMemConnectionRepo(target), newMemRunRepo(), &memPostRepo{}, &memActivityRepo{}, reg, nil, nil)

	err := exec.Execute(context.Background(), &models.Workflow{ID: 1}, &models.WorkflowRun{ID: 1}, []*models.WorkflowStep{publishStep(101, 1, 5)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported platform")
}

func TestEffectiveCaption(t *testing.T) {
	assert.Equal(t, "orig", effectiveCaption(transfer.PublishConfig{UseOriginalCaption: true, CustomCaption: "custom"}, "orig"))
	assert.Equal(t, "custom", effectiveCaption(transfer.PublishConfig{CustomCaption: "custom"}, "orig"))
	// The fallback is the trigger caption, never an empty string.
	assert.Equal(t, "orig", effectiveCaption(transfer.PublishConfig{}, "orig"))
}

func TestPublishStepCaptionConfig(t *testing.T) {
	target := &models.Connection{ID: 5, Platform: models.PlatformTiktok}
	adapter := &fakeAdapter{platform: models.PlatformTiktok}
	exec, _, postRepo, _, _, _ := executorFixture(adapter, target)

	step := publishStep(101, 1, 5)
	step.Config = `{"custom_caption": "my caption", "privacy": "private"}`

	run := &models.WorkflowRun{ID: 1, TriggerCaption: "original"}
	err := exec.Execute(context.Background(), &models.Workflow{ID: 1, UserID: 9}, run, []*models.WorkflowStep{step})
	require.NoError(t, err)

	require.Len(t, adapter.publishCalls, 1)
	assert.Equal(t, "my caption", adapter.publishCalls[0].Caption)
	assert.Equal(t, "private", adapter.publishCalls[0].Privacy)
	require.Len(t, postRepo.posts, 1)
	assert.Equal(t, "my caption", postRepo.posts[0].Caption)
}

func TestPublishStepSplitsCaptionForYoutube(t *testing.T) {
	target := &models.Connection{ID: 5, Platform: models.PlatformYoutube}
	adapter := &fakeAdapter{platform: models.PlatformYoutube}
	exec, _, _, _, _, _ := executorFixture(adapter, target)

	run := &models.WorkflowRun{
		ID:             1,
		TriggerCaption: "My video title\nLonger description\nwith two lines",
		TriggerTitle:   "fallback",
	}
	err := exec.Execute(context.Background(), &models.Workflow{ID: 1, UserID: 9}, run, []*models.WorkflowStep{publishStep(101, 1, 5)})
	require.NoError(t, err)

	require.Len(t, adapter.publishCalls, 1)
	assert.Equal(t, "My video title", adapter.publishCalls[0].Title)
	assert.Equal(t, "Longer description\nwith two lines", adapter.publishCalls[0].Caption)
}

func TestSplitCaption(t *testing.T) {
	title, desc := splitCaption("one line only", "fallback")
	assert.Equal(t, "one line only", title)
	assert.Equal(t, "", desc)

	title, desc = splitCaption("", "fallback")
	assert.Equal(t, "fallback", title)
	assert.Equal(t, "", desc)

	long := make([]byte, 150)
	for i := range long {
		long[i] = 'a'
	}
	title, _ = splitCaption(string(long), "fallback")
	assert.Len(t, title, 100)
	assert.Equal(t, "...", title[97:])
}
