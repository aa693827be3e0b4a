package queue

import (
	"github.com/maheshrc27/crossflow/internal/pipeline"
	"github.com/maheshrc27/crossflow/internal/repository"
	"github.com/maheshrc27/crossflow/internal/service"
)

type Queue struct {
	poller *pipeline.Poller
	cr     repository.ConnectionRepository
	al     repository.ActivityLogRepository
	media  *service.MediaService
}

func NewQueue(
	poller *pipeline.Poller,
	cr repository.ConnectionRepository,
	al repository.ActivityLogRepository,
	media *service.MediaService) *Queue {
	return &Queue{
		poller: poller,
		cr:     cr,
		al:     al,
		media:  media,
	}
}

const (
	TaskTypePollSweep    = "poll:sweep"
	TaskTypeMediaCleanup = "cleanup:media"
)

type PollSweepPayload struct {
	// ConnectionID limits the sweep to one connection. Zero sweeps all.
	ConnectionID int64 `json:"connection_id"`
}

type MediaCleanupPayload struct {
	Key    string `json:"key"`
	RunID  int64  `json:"run_id"`
	UserID int64  `json:"user_id"`
}
