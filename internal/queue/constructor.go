package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

func EnqueuePollSweep(asynqClient *asynq.Client, payload PollSweepPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePollSweep, taskPayload)

	_, err = asynqClient.Enqueue(task)
	if err != nil {
		return err
	}

	log.Printf("Task scheduled: %+v", payload)
	return nil
}

func EnqueueMediaCleanup(asynqClient *asynq.Client, payload MediaCleanupPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeMediaCleanup, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(5))
	if err != nil {
		return err
	}

	log.Printf("Task scheduled: %+v", payload)
	return nil
}

// CleanupDelay gives slow platforms time to finish pulling the media before
// the object disappears.
const CleanupDelay = 30 * time.Minute

// Scheduler adapts the asynq client to the executor's cleanup hook.
type Scheduler struct {
	client *asynq.Client
}

func NewScheduler(client *asynq.Client) *Scheduler {
	return &Scheduler{client: client}
}

func (s *Scheduler) ScheduleMediaCleanup(key string, runID, userID int64) error {
	return EnqueueMediaCleanup(s.client, MediaCleanupPayload{
		Key:    key,
		RunID:  runID,
		UserID: userID,
	}, CleanupDelay)
}
