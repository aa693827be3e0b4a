package pipeline

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/platform"
	"github.com/maheshrc27/crossflow/internal/repository"
)

// In-memory repository fakes shared by the pipeline tests.

type memConnectionRepo struct {
	mu              sync.Mutex
	connections     map[int64]*models.Connection
	lastSynced      map[int64]time.Time
	lastSyncedCalls int
}

func newMemConnectionRepo(conns ...*models.Connection) *memConnectionRepo {
	r := &memConnectionRepo{
		connections: map[int64]*models.Connection{},
		lastSynced:  map[int64]time.Time{},
	}
	for _, c := range conns {
		r.connections[c.ID] = c
	}
	return r
}

func (r *memConnectionRepo) Create(ctx context.Context, tx *sql.Tx, c *models.Connection) (int64, error) {
	return 0, nil
}

func (r *memConnectionRepo) GetByID(ctx context.Context, id int64) (*models.Connection, error) {
	return r.connections[id], nil
}

func (r *memConnectionRepo) ListActive(ctx context.Context) ([]*models.Connection, error) {
	var out []*models.Connection
	for _, c := range r.connections {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memConnectionRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	return nil, nil
}

func (r *memConnectionRepo) ListExpiringTokens(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error) {
	return nil, nil
}

func (r *memConnectionRepo) CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error) {
	return false, nil
}

func (r *memConnectionRepo) UpdateTokens(ctx context.Context, id int64, oldAccessToken, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}

func (r *memConnectionRepo) UpdateLastSynced(ctx context.Context, id int64, syncedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSynced[id] = syncedAt
	r.lastSyncedCalls++
	return nil
}

func (r *memConnectionRepo) SetActive(ctx context.Context, id int64, active bool) error { return nil }
func (r *memConnectionRepo) Remove(ctx context.Context, id int64) error                 { return nil }

type contentKey struct {
	connectionID int64
	externalID   string
}

type memContentRepo struct {
	mu        sync.Mutex
	nextID    int64
	byKey     map[contentKey]int64
	byID      map[int64]*models.TrackedContent
	processed map[int64]bool
}

func newMemContentRepo() *memContentRepo {
	return &memContentRepo{
		nextID:    1,
		byKey:     map[contentKey]int64{},
		byID:      map[int64]*models.TrackedContent{},
		processed: map[int64]bool{},
	}
}

func (r *memContentRepo) Create(ctx context.Context, tc *models.TrackedContent) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := contentKey{tc.ConnectionID, tc.ExternalPostID}
	if _, ok := r.byKey[key]; ok {
		return 0, repository.ErrDuplicateContent
	}
	id := r.nextID
	r.nextID++
	r.byKey[key] = id
	copied := *tc
	copied.ID = id
	r.byID[id] = &copied
	return id, nil
}

func (r *memContentRepo) GetByID(ctx context.Context, id int64) (*models.TrackedContent, error) {
	return r.byID[id], nil
}

func (r *memContentRepo) Exists(ctx context.Context, connectionID int64, externalPostID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byKey[contentKey{connectionID, externalPostID}]
	return ok, nil
}

func (r *memContentRepo) MarkProcessed(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[id] = true
	return nil
}

type memActivityRepo struct {
	mu      sync.Mutex
	entries []*models.ActivityLogEntry
}

func (r *memActivityRepo) Create(ctx context.Context, e *models.ActivityLogEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return int64(len(r.entries)), nil
}

func (r *memActivityRepo) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.ActivityLogEntry, error) {
	return r.entries, nil
}

func (r *memActivityRepo) eventsOfType(eventType string) []*models.ActivityLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ActivityLogEntry
	for _, e := range r.entries {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type memWorkflowRepo struct {
	workflows []*models.Workflow
	steps     map[int64][]*models.WorkflowStep
}

func (r *memWorkflowRepo) Create(ctx context.Context, tx *sql.Tx, w *models.Workflow) (int64, error) {
	return 0, nil
}

func (r *memWorkflowRepo) CreateStep(ctx context.Context, tx *sql.Tx, s *models.WorkflowStep) (int64, error) {
	return 0, nil
}

func (r *memWorkflowRepo) GetByID(ctx context.Context, id int64) (*models.Workflow, error) {
	return nil, nil
}

func (r *memWorkflowRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Workflow, error) {
	return nil, nil
}

func (r *memWorkflowRepo) ListActiveByTriggerConnection(ctx context.Context, connectionID int64, condition string) ([]*models.Workflow, error) {
	var out []*models.Workflow
	for _, w := range r.workflows {
		if w.TriggerConnectionID == connectionID && w.TriggerCondition == condition && w.IsActive {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *memWorkflowRepo) ListSteps(ctx context.Context, workflowID int64) ([]*models.WorkflowStep, error) {
	return r.steps[workflowID], nil
}

func (r *memWorkflowRepo) CountByTriggerConnection(ctx context.Context, connectionID int64) (int, error) {
	return 0, nil
}

func (r *memWorkflowRepo) CheckByUserID(ctx context.Context, workflowID, userID int64) (bool, error) {
	return false, nil
}

func (r *memWorkflowRepo) SetActive(ctx context.Context, id int64, active bool) error { return nil }
func (r *memWorkflowRepo) Remove(ctx context.Context, id int64) error                 { return nil }

type memRunRepo struct {
	mu       sync.Mutex
	nextID   int64
	statuses map[int64][]string
	errors   map[int64]string
	stepRuns []*models.WorkflowStepRun
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{nextID: 1, statuses: map[int64][]string{}, errors: map[int64]string{}}
}

func (r *memRunRepo) CreateRun(ctx context.Context, run *models.WorkflowRun) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.statuses[id] = []string{run.Status}
	return id, nil
}

func (r *memRunRepo) UpdateRunStatus(ctx context.Context, id int64, status, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[id] = append(r.statuses[id], status)
	if errorMessage != "" {
		r.errors[id] = errorMessage
	}
	return nil
}

func (r *memRunRepo) CreateStepRun(ctx context.Context, sr *models.WorkflowStepRun) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stepRuns = append(r.stepRuns, sr)
	return int64(len(r.stepRuns)), nil
}

func (r *memRunRepo) ListByWorkflowID(ctx context.Context, workflowID int64) ([]*models.WorkflowRun, error) {
	return nil, nil
}

func (r *memRunRepo) ListStepRuns(ctx context.Context, runID int64) ([]*models.WorkflowStepRun, error) {
	return r.stepRuns, nil
}

func (r *memRunRepo) finalStatus(id int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statuses[id]
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

type memPostRepo struct {
	mu    sync.Mutex
	posts []*models.Post
}

func (r *memPostRepo) Create(ctx context.Context, p *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, p)
	return int64(len(r.posts)), nil
}

func (r *memPostRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return r.posts, nil
}

// fakeAdapter is both a Lister and a Publisher, scripted per test.
type fakeAdapter struct {
	platform     string
	items        []platform.ContentItem
	listErr      error
	listCalls    int
	publishCalls []platform.PublishOptions
	results      []platform.PublishResult
}

func (f *fakeAdapter) Platform() string { return f.platform }

func (f *fakeAdapter) EnsureValidToken(ctx context.Context, conn *models.Connection) (string, error) {
	return "token", nil
}

func (f *fakeAdapter) ListSince(ctx context.Context, conn *models.Connection, since time.Time) ([]platform.ContentItem, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []platform.ContentItem
	for _, item := range f.items {
		if item.PublishedAt.After(since) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeAdapter) Publish(ctx context.Context, conn *models.Connection, content platform.ContentItem, opts platform.PublishOptions) platform.PublishResult {
	i := len(f.publishCalls)
	f.publishCalls = append(f.publishCalls, opts)
	if i < len(f.results) {
		return f.results[i]
	}
	return platform.PublishResult{Success: true, PlatformPostID: "post-1", PlatformURL: "https://example.com/post-1"}
}

type fakeRehoster struct {
	url   string
	key   string
	calls int
}

func (f *fakeRehoster) Rehost(ctx context.Context, sourceURL string) (string, string, error) {
	f.calls++
	return f.url, f.key, nil
}

type fakeCleanup struct {
	keys    []string
	runIDs  []int64
	userIDs []int64
}

func (f *fakeCleanup) ScheduleMediaCleanup(key string, runID, userID int64) error {
	f.keys = append(f.keys, key)
	f.runIDs = append(f.runIDs, runID)
	f.userIDs = append(f.userIDs, userID)
	return nil
}
