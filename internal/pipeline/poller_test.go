package pipeline

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pollerFixture(adapter *fakeAdapter, conns ...*models.Connection) (*Poller, *memConnectionRepo, *memContentRepo, *memActivityRepo, *memRunRepo) {
	connRepo := newMemConnectionRepo(conns...)
	contentRepo := newMemContentRepo()
	activityRepo := &memActivityRepo{}
	runRepo := newMemRunRepo()
	workflowRepo := &memWorkflowRepo{}
	postRepo := &memPostRepo{}

	reg := platform.NewRegistry(adapter)
	exec := NewExecutor(connRepo, runRepo, postRepo, activityRepo, reg, nil, nil)
	matcher := NewTriggerMatcher(workflowRepo, runRepo, activityRepo, exec)
	poller := NewPoller(connRepo, contentRepo, activityRepo, reg, matcher, 24*time.Hour)

	return poller, connRepo, contentRepo, activityRepo, runRepo
}

func TestPollConnectionTracksNewContent(t *testing.T) {
	conn := &models.Connection{ID: 1, UserID: 9, Platform: models.PlatformYoutube, IsActive: true}
	adapter := &fakeAdapter{
		platform: models.PlatformYoutube,
		items: []platform.ContentItem{
			{ExternalID: "vid-1", Type: models.ContentTypeVideo, Title: "First", PublishedAt: time.Now().Add(-time.Hour)},
			{ExternalID: "vid-2", Type: models.ContentTypeVideo, Title: "Second", PublishedAt: time.Now().Add(-time.Minute)},
		},
	}
	poller, connRepo, contentRepo, activityRepo, _ := pollerFixture(adapter, conn)

	result := poller.PollConnection(context.Background(), conn)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.NewContentCount)

	assert.Len(t, activityRepo.eventsOfType(models.EventContentDetected), 2)
	assert.True(t, contentRepo.processed[1])
	assert.True(t, contentRepo.processed[2])
	assert.Equal(t, 1, connRepo.lastSyncedCalls)
}

func TestPollConnectionSecondSweepIsIdempotent(t *testing.T) {
	conn := &models.Connection{ID: 1, UserID: 9, Platform: models.PlatformYoutube, IsActive: true}
	adapter := &fakeAdapter{
		platform: models.PlatformYoutube,
		items: []platform.ContentItem{
			{ExternalID: "vid-1", Type: models.ContentTypeVideo, PublishedAt: time.Now().Add(-time.Hour)},
		},
	}
	poller, _, _, activityRepo, _ := pollerFixture(adapter, conn)

	first := poller.PollConnection(context.Background(), conn)
	require.Equal(t, 1, first.NewContentCount)

	// LastSyncedAt stays unset so the second sweep sees the item again and
	// must drop it on the dedup key.
	second := poller.PollConnection(context.Background(), conn)
	assert.Equal(t, 0, second.NewContentCount)
	assert.Equal(t, 0, second.WorkflowsTriggered)
	assert.Empty(t, second.Errors)

	assert.Len(t, activityRepo.eventsOfType(models.EventContentDetected), 1)
}

func TestPollConnectionUsesLastSyncedAsWindow(t *testing.T) {
	lastSynced := time.Now().Add(-30 * time.Minute)
	conn := &models.Connection{
		ID:           1,
		Platform:     models.PlatformYoutube,
		IsActive:     true,
		LastSyncedAt: sql.NullTime{Time: lastSynced, Valid: true},
	}
	adapter := &fakeAdapter{
		platform: models.PlatformYoutube,
		items: []platform.ContentItem{
			{ExternalID: "old", PublishedAt: lastSynced.Add(-time.Hour)},
			{ExternalID: "new", PublishedAt: lastSynced.Add(time.Minute)},
		},
	}
	poller, _, contentRepo, _, _ := pollerFixture(adapter, conn)

	result := poller.PollConnection(context.Background(), conn)
	assert.Equal(t, 1, result.NewContentCount)

	exists, _ := contentRepo.Exists(context.Background(), 1, "new")
	assert.True(t, exists)
	exists, _ = contentRepo.Exists(context.Background(), 1, "old")
	assert.False(t, exists)
}

func TestPollConnectionListErrorAdvancesNothing(t *testing.T) {
	conn := &models.Connection{ID: 1, Platform: models.PlatformYoutube, IsActive: true}
	adapter := &fakeAdapter{
		platform: models.PlatformYoutube,
		listErr:  assert.AnError,
	}
	poller, connRepo, _, _, _ := pollerFixture(adapter, conn)

	result := poller.PollConnection(context.Background(), conn)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "error listing content")
	assert.Equal(t, 0, connRepo.lastSyncedCalls)
}

func TestPollConnectionTokenConflictSkipsSweep(t *testing.T) {
	conn := &models.Connection{ID: 1, Platform: models.PlatformYoutube, IsActive: true}
	adapter := &fakeAdapter{
		platform: models.PlatformYoutube,
		listErr:  platform.ErrTokenConflict,
	}
	poller, connRepo, _, _, _ := pollerFixture(adapter, conn)

	result := poller.PollConnection(context.Background(), conn)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.NewContentCount)
	assert.Equal(t, 0, connRepo.lastSyncedCalls)
}

func TestPollAllSkipsPublishOnlyPlatforms(t *testing.T) {
	pollable := &models.Connection{ID: 1, Platform: models.PlatformYoutube, IsActive: true}
	publishOnly := &models.Connection{ID: 2, Platform: models.PlatformInstagram, IsActive: true}

	adapter := &fakeAdapter{platform: models.PlatformYoutube}
	poller, _, _, _, _ := pollerFixture(adapter, pollable, publishOnly)

	results, err := poller.PollAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ConnectionID)
}

func TestPollConnectionTriggersMatchingWorkflows(t *testing.T) {
	conn := &models.Connection{ID: 1, UserID: 9, Platform: models.PlatformYoutube, IsActive: true}
	adapter := &fakeAdapter{
		platform: models.PlatformYoutube,
		items: []platform.ContentItem{
			{ExternalID: "vid-1", Type: models.ContentTypeVideo, Caption: "hello", PublishedAt: time.Now().Add(-time.Minute)},
		},
	}

	connRepo := newMemConnectionRepo(conn)
	contentRepo := newMemContentRepo()
	activityRepo := &memActivityRepo{}
	runRepo := newMemRunRepo()
	workflowRepo := &memWorkflowRepo{
		workflows: []*models.Workflow{
			{ID: 11, UserID: 9, Name: "wf", TriggerConnectionID: 1, TriggerCondition: models.TriggerNewPost, IsActive: true},
		},
		steps: map[int64][]*models.WorkflowStep{},
	}

	reg := platform.NewRegistry(adapter)
	exec := NewExecutor(connRepo, runRepo, &memPostRepo{}, activityRepo, reg, nil, nil)
	matcher := NewTriggerMatcher(workflowRepo, runRepo, activityRepo, exec)
	poller := NewPoller(connRepo, contentRepo, activityRepo, reg, matcher, 24*time.Hour)

	result := poller.PollConnection(context.Background(), conn)
	assert.Equal(t, 1, result.NewContentCount)
	assert.Equal(t, 1, result.WorkflowsTriggered)
	assert.Len(t, activityRepo.eventsOfType(models.EventWorkflowTriggered), 1)
	assert.Equal(t, models.RunStatusCompleted, runRepo.finalStatus(1))
}
