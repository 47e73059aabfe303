package domain

import "time"

// CaseStatus enumerates lifecycle states for support cases.
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "OPEN"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusWaiting    CaseStatus = "WAITING"
	CaseStatusClosed     CaseStatus = "CLOSED"
)

// CasePriority enumerates urgency levels.
type CasePriority string

const (
	CasePriorityLow    CasePriority = "LOW"
	CasePriorityMedium CasePriority = "MEDIUM"
	CasePriorityHigh   CasePriority = "HIGH"
)

// Case is the aggregate for support work tracked against SLA thresholds.
// LastActivityAt is reset by any staff mutation (note, status change) and is
// the reference point for SLA classification. FollowUpSentAt and
// EscalationSentAt are the idempotency markers: a non-null value suppresses
// re-dispatch for the current open period.
type Case struct {
	ID               string
	ExternalKey      string
	Title            string
	Description      string
	Category         string
	Priority         CasePriority
	Status           CaseStatus
	EmployeeName     string
	ContactPhone     string
	ClientID         *string
	ClientName       string
	AssigneeID       *string
	CreatedAt        time.Time
	LastActivityAt   time.Time
	ClosedAt         *time.Time
	FollowUpSentAt   *time.Time
	EscalationSentAt *time.Time
}

// IsOpen reports whether the case is still subject to SLA tracking.
func (c *Case) IsOpen() bool {
	return c.Status != CaseStatusClosed
}
