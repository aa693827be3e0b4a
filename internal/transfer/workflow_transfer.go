package transfer

type WorkflowCreation struct {
	Name                string         `json:"name"`
	TriggerConnectionID int64          `json:"trigger_connection_id"`
	Steps               []StepCreation `json:"steps"`
}

type StepCreation struct {
	Kind               string `json:"kind"`
	TargetConnectionID int64  `json:"target_connection_id"`
	Config             string `json:"config"`
}

// PublishConfig is the platform-specific publish configuration carried by a
// publish step. Stored as JSON in workflow_steps.config.
type PublishConfig struct {
	UseOriginalCaption bool     `json:"use_original_caption"`
	CustomCaption      string   `json:"custom_caption"`
	Privacy            string   `json:"privacy"`
	Tags               []string `json:"tags"`
	DisableComment     bool     `json:"disable_comment"`
}
