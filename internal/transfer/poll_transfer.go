package transfer

// PollResult is the per-connection summary returned by the poll entry point.
type PollResult struct {
	ConnectionID       int64    `json:"connection_id"`
	Platform           string   `json:"platform"`
	Username           string   `json:"username"`
	NewContentCount    int      `json:"new_content_count"`
	WorkflowsTriggered int      `json:"workflows_triggered"`
	Errors             []string `json:"errors"`
}
