package messagequeue

// ResearchRequestPayload is the schema for research.request messages.
type ResearchRequestPayload struct {
	Topic          string `json:"topic"`
	ResponseStyle  string `json:"response_style,omitempty"`
	IncludeSources *bool  `json:"include_sources,omitempty"`
}

// TaskStatusPayload is the schema for research.task.{status} messages.
type TaskStatusPayload struct {
	TaskID      string `json:"task_id"`
	Topic       string `json:"topic"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"current_step"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
}
