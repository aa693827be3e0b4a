package models

import "time"

type Workflow struct {
	ID                  int64     `db:"id" json:"id"`
	UserID              int64     `db:"user_id" json:"user_id"`
	Name                string    `db:"name" json:"name"`
	TriggerConnectionID int64     `db:"trigger_connection_id" json:"trigger_connection_id"`
	TriggerCondition    string    `db:"trigger_condition" json:"trigger_condition"`
	IsActive            bool      `db:"is_active" json:"is_active"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

type WorkflowStep struct {
	ID                 int64     `db:"id" json:"id"`
	WorkflowID         int64     `db:"workflow_id" json:"workflow_id"`
	StepOrder          int       `db:"step_order" json:"step_order"`
	Kind               string    `db:"kind" json:"kind"`
	TargetConnectionID int64     `db:"target_connection_id" json:"target_connection_id"`
	Config             string    `db:"config" json:"config"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// WorkflowRun is one firing of a workflow against one tracked content item.
// The Trigger* fields are a frozen snapshot so later steps are insulated
// from source mutation.
type WorkflowRun struct {
	ID               int64     `db:"id" json:"id"`
	WorkflowID       int64     `db:"workflow_id" json:"workflow_id"`
	ContentID        int64     `db:"content_id" json:"content_id"`
	Status           string    `db:"status" json:"status"`
	TriggerCaption   string    `db:"trigger_caption" json:"trigger_caption"`
	TriggerTitle     string    `db:"trigger_title" json:"trigger_title"`
	TriggerURL       string    `db:"trigger_url" json:"trigger_url"`
	TriggerMediaURL  string    `db:"trigger_media_url" json:"trigger_media_url"`
	TriggerThumbnail string    `db:"trigger_thumbnail_url" json:"trigger_thumbnail"`
	ContentType      string    `db:"content_type" json:"content_type"`
	Error            string    `db:"error_message" json:"error_message"`
	StartedAt        time.Time `db:"started_at" json:"started_at"`
	CompletedAt      time.Time `db:"completed_at" json:"completed_at"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type WorkflowStepRun struct {
	ID             int64     `db:"id" json:"id"`
	RunID          int64     `db:"run_id" json:"run_id"`
	StepID         int64     `db:"step_id" json:"step_id"`
	Status         string    `db:"status" json:"status"`
	Input          string    `db:"input" json:"input"`
	PlatformPostID string    `db:"platform_post_id" json:"platform_post_id"`
	PlatformURL    string    `db:"platform_url" json:"platform_url"`
	Error          string    `db:"error_message" json:"error_message"`
	StartedAt      time.Time `db:"started_at" json:"started_at"`
	CompletedAt    time.Time `db:"completed_at" json:"completed_at"`
}

const (
	TriggerNewPost = "new_post"

	StepKindPublish   = "publish"
	StepKindAIRewrite = "ai_rewrite"
	StepKindDelay     = "delay"

	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
