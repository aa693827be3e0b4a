package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/crossflow/internal/models"
	"github.com/maheshrc27/crossflow/internal/platform"
	"github.com/maheshrc27/crossflow/internal/repository"
)

// TokenRefreshJob proactively refreshes credentials expiring in the next
// window, so the poller rarely pays the refresh latency inline.
type TokenRefreshJob struct {
	cr     repository.ConnectionRepository
	reg    *platform.Registry
	window time.Duration
}

func NewTokenRefreshJob(cr repository.ConnectionRepository, reg *platform.Registry, window time.Duration) *TokenRefreshJob {
	return &TokenRefreshJob{
		cr:     cr,
		reg:    reg,
		window: window,
	}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	connections, err := j.cr.ListExpiringTokens(ctx, currentTime, currentTime.Add(j.window))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, conn := range connections {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(conn *models.Connection) {
			defer wg.Done()
			defer func() { <-semaphore }()

			adapter, err := j.reg.Lookup(conn.Platform)
			if err != nil {
				return
			}

			_, err = adapter.EnsureValidToken(ctx, conn)
			if err != nil {
				// Another refresher winning the conditional update is fine.
				if errors.Is(err, repository.ErrTokenConflict) {
					return
				}
				slog.Info("unable to refresh token",
					"connection_id", conn.ID,
					"platform", conn.Platform,
					"error", err.Error())
			}
		}(conn)
	}

	wg.Wait()
}
