package events

import (
	"time"

	"github.com/spec-kit/case-sla-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated       EventType = "case_created"
	EventCaseNoteAdded     EventType = "case_note_added"
	EventCaseStatusChanged EventType = "case_status_changed"
	EventFollowUpSent      EventType = "sla_follow_up_sent"
	EventCaseEscalated     EventType = "sla_case_escalated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CaseID    string      `json:"case_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CaseCreatedPayload payload.
type CaseCreatedPayload struct {
	Category string              `json:"category"`
	Priority domain.CasePriority `json:"priority"`
	Title    string              `json:"title"`
	ClientID *string             `json:"client_id,omitempty"`
}

// CaseNoteAddedPayload payload.
type CaseNoteAddedPayload struct {
	NoteID      string `json:"note_id"`
	BodyPreview string `json:"body_preview"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	OldStatus domain.CaseStatus `json:"old_status"`
	NewStatus domain.CaseStatus `json:"new_status"`
	Comment   string            `json:"comment,omitempty"`
}

// FollowUpSentPayload payload.
type FollowUpSentPayload struct {
	Recipient string `json:"recipient"`
	Category  string `json:"category"`
}

// CaseEscalatedPayload payload.
type CaseEscalatedPayload struct {
	HoursSinceActivity float64 `json:"hours_since_activity"`
	Recipients         int     `json:"recipients"`
}
