package models

import "time"

// Post records one successfully published cross-post on a target platform.
type Post struct {
	ID                 int64     `db:"id" json:"id"`
	UserID             int64     `db:"user_id" json:"user_id"`
	WorkflowRunID      int64     `db:"workflow_run_id" json:"workflow_run_id"`
	TargetConnectionID int64     `db:"target_connection_id" json:"target_connection_id"`
	Platform           string    `db:"platform" json:"platform"`
	PlatformPostID     string    `db:"platform_post_id" json:"platform_post_id"`
	PlatformURL        string    `db:"platform_url" json:"platform_url"`
	Caption            string    `db:"caption" json:"caption"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
