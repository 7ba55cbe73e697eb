package handlers

// ErrorResponse is the body returned for handled failures.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusResponse acknowledges an Events API callback.
type StatusResponse struct {
	Status string `json:"status"`
}

// Acknowledgement statuses for /slack/events.
const (
	StatusOK           = "ok"
	StatusBotIgnored   = "Bot message ignored"
	StatusNotInstalled = "workspace not installed"
)
