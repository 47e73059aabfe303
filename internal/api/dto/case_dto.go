package dto

import (
	"time"

	"github.com/spec-kit/case-sla-service/internal/domain"
)

// CreateCaseRequest payload.
type CreateCaseRequest struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Priority     domain.CasePriority `json:"priority"`
	EmployeeName string              `json:"employee_name"`
	ContactPhone string              `json:"contact_phone"`
	ClientID     *string             `json:"client_id"`
	ClientName   string              `json:"client_name"`
	AssigneeID   *string             `json:"assignee_id"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Body string `json:"body"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.CaseStatus `json:"status"`
	Comment string            `json:"comment"`
}

// CaseSummary response.
type CaseSummary struct {
	ID               string              `json:"id"`
	ExternalKey      string              `json:"external_key"`
	Title            string              `json:"title"`
	Category         string              `json:"category"`
	Priority         domain.CasePriority `json:"priority"`
	Status           domain.CaseStatus   `json:"status"`
	EmployeeName     string              `json:"employee_name"`
	ClientName       string              `json:"client_name"`
	AssigneeID       *string             `json:"assignee_id"`
	CreatedAt        time.Time           `json:"created_at"`
	LastActivityAt   time.Time           `json:"last_activity_at"`
	FollowUpSentAt   *time.Time          `json:"follow_up_sent_at"`
	EscalationSentAt *time.Time          `json:"escalation_sent_at"`
}

// CaseDetailResponse provides full case info.
type CaseDetailResponse struct {
	CaseSummary
	Description  string         `json:"description"`
	ContactPhone string         `json:"contact_phone"`
	ClientID     *string        `json:"client_id"`
	ClosedAt     *time.Time     `json:"closed_at"`
	Notes        []NoteResponse `json:"notes"`
}

// NoteResponse represents a staff note.
type NoteResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationResponse represents an audit trail entry.
type NotificationResponse struct {
	ID        string                     `json:"id"`
	Channel   domain.NotificationChannel `json:"channel"`
	Recipient string                     `json:"recipient"`
	Message   string                     `json:"message"`
	CreatedAt time.Time                  `json:"created_at"`
}
