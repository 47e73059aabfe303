package domain

import "time"

// CaseNote records staff activity on a case. Creating one resets the case's
// activity clock.
type CaseNote struct {
	ID        string
	CaseID    string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
