package job

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/crossflow/internal/pipeline"
)

type PollJob struct {
	poller *pipeline.Poller
}

func NewPollJob(poller *pipeline.Poller) *PollJob {
	return &PollJob{poller: poller}
}

func (j *PollJob) Run() {
	ctx := context.Background()

	results, err := j.poller.PollAll(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var newContent, triggered, failed int
	for _, r := range results {
		newContent += r.NewContentCount
		triggered += r.WorkflowsTriggered
		if len(r.Errors) > 0 {
			failed++
		}
	}

	slog.Info("poll cycle finished",
		"connections", len(results),
		"new_content", newContent,
		"workflows_triggered", triggered,
		"connections_with_errors", failed)
}
