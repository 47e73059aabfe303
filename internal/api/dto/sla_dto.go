package dto

// SLARunResponse is the terminal report of a pipeline run, returned to the
// scheduler or the admin UI that triggered it.
type SLARunResponse struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	FollowUpsSent   int      `json:"followUpsSent"`
	EscalationsSent int      `json:"escalationsSent"`
	Errors          []string `json:"errors,omitempty"`
}
