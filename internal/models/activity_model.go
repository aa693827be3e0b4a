package models

import "time"

// ActivityLogEntry is append-only; the pipeline writes it and never reads it
// back. The dashboard consumes the feed.
type ActivityLogEntry struct {
	ID                 int64     `db:"id" json:"id"`
	UserID             int64     `db:"user_id" json:"user_id"`
	EventType          string    `db:"event_type" json:"event_type"`
	SourceConnectionID int64     `db:"source_connection_id" json:"source_connection_id"`
	TargetConnectionID int64     `db:"target_connection_id" json:"target_connection_id"`
	WorkflowID         int64     `db:"workflow_id" json:"workflow_id"`
	ContentID          int64     `db:"content_id" json:"content_id"`
	Message            string    `db:"message" json:"message"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

const (
	EventContentDetected       = "content_detected"
	EventWorkflowTriggered     = "workflow_triggered"
	EventCrossPostStarted      = "cross_post_started"
	EventCrossPostCompleted    = "cross_post_completed"
	EventCrossPostFailed       = "cross_post_failed"
	EventMediaCleanupCompleted = "media_cleanup_completed"
	EventMediaCleanupFailed    = "media_cleanup_failed"
)
