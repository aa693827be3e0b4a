package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/platform"
	"github.com/maheshrc27/crossflow/internal/repository"
	"github.com/maheshrc27/crossflow/internal/transfer"
)

// Poller sweeps active pollable connections for new content. Connections are
// visited sequentially to bound aggregate load against platform rate limits
// and keep last-synced write ordering simple.
type Poller struct {
	cr       repository.ConnectionRepository
	tc       repository.TrackedContentRepository
	al       repository.ActivityLogRepository
	reg      *platform.Registry
	matcher  *TriggerMatcher
	lookback time.Duration
}

func NewPoller(
	cr repository.ConnectionRepository,
	tc repository.TrackedContentRepository,
	al repository.ActivityLogRepository,
	reg *platform.Registry,
	matcher *TriggerMatcher,
	lookback time.Duration) *Poller {
	return &Poller{
		cr:       cr,
		tc:       tc,
		al:       al,
		reg:      reg,
		matcher:  matcher,
		lookback: lookback,
	}
}

// PollAll sweeps every active pollable connection. Per-connection failures
// land in that connection's result; the sweep itself never aborts.
func (p *Poller) PollAll(ctx context.Context) ([]*transfer.PollResult, error) {
	connections, err := p.cr.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing active connections: %w", err)
	}

	var results []*transfer.PollResult
	for _, conn := range connections {
		if !p.reg.Pollable(conn.Platform) {
			continue
		}
		results = append(results, p.PollConnection(ctx, conn))
	}

	return results, nil
}

// PollConnection polls one connection for content newer than its last sync.
func (p *Poller) PollConnection(ctx context.Context, conn *models.Connection) (result *transfer.PollResult) {
	result = &transfer.PollResult{
		ConnectionID: conn.ID,
		Platform:     conn.Platform,
		Username:     conn.AccountUsername,
		Errors:       []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("panic during poll: %v", r))
		}
	}()

	lister, err := p.reg.Lister(conn.Platform)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	since := time.Now().Add(-p.lookback)
	if conn.LastSyncedAt.Valid {
		since = conn.LastSyncedAt.Time
	}

	items, err := lister.ListSince(ctx, conn, since)
	if err != nil {
		if errors.Is(err, platform.ErrTokenConflict) {
			// A concurrent refresher holds the fresher credential; leave the
			// connection for the next sweep instead of fighting over it.
			result.Errors = append(result.Errors, err.Error())
			return result
		}
		result.Errors = append(result.Errors, fmt.Sprintf("error listing content: %v", err))
		return result
	}

	for _, item := range items {
		if err := p.handleItem(ctx, conn, item, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", item.ExternalID, err))
		}
	}

	// Last-synced advances even when individual items failed: forward
	// progress over at-least-once, so a bad item cannot wedge the sweep.
	if err := p.cr.UpdateLastSynced(ctx, conn.ID, time.Now()); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("error updating last synced: %v", err))
	}

	return result
}

func (p *Poller) handleItem(ctx context.Context, conn *models.Connection, item platform.ContentItem, result *transfer.PollResult) error {
	exists, err := p.tc.Exists(ctx, conn.ID, item.ExternalID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	content := &models.TrackedContent{
		ConnectionID:   conn.ID,
		ExternalPostID: item.ExternalID,
		ContentType:    item.Type,
		URL:            item.URL,
		Title:          item.Title,
		Caption:        item.Caption,
		MediaURL:       item.MediaURL,
		ThumbnailURL:   item.ThumbnailURL,
		PostedAt:       item.PublishedAt,
	}

	contentID, err := p.tc.Create(ctx, content)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateContent) {
			// Lost a race with another sweep; the item is already tracked.
			return nil
		}
		return err
	}
	content.ID = contentID
	result.NewContentCount++

	_, err = p.al.Create(ctx, &models.ActivityLogEntry{
		UserID:             conn.UserID,
		EventType:          models.EventContentDetected,
		SourceConnectionID: conn.ID,
		ContentID:          contentID,
		Message:            fmt.Sprintf("New %s detected on %s: %s", item.Type, conn.Platform, item.Title),
	})
	if err != nil {
		slog.Info(err.Error())
	}

	triggered, err := p.matcher.MatchAndRun(ctx, conn, content)
	result.WorkflowsTriggered += triggered
	if err != nil {
		return err
	}

	return p.tc.MarkProcessed(ctx, contentID)
}
