// Package delivery holds the outbound notification channels. The SLA
// notifiers depend on the two interfaces here so tests can substitute fakes
// and so channel failures stay isolated per send.
package delivery

import "context"

// FollowUpMessage carries everything needed to compose the SMS reminder sent
// to a case contact.
type FollowUpMessage struct {
	CaseKey      string
	PhoneNumber  string
	EmployeeName string
	Category     string
}

// EscalationAlert carries everything needed to compose the admin escalation
// email.
type EscalationAlert struct {
	CaseKey            string
	EmployeeName       string
	Category           string
	ClientName         string
	HoursSinceActivity float64
}

// SMSSender dispatches a follow-up reminder over SMS.
type SMSSender interface {
	SendFollowUpReminder(ctx context.Context, msg FollowUpMessage) error
}

// EmailSender dispatches an escalation alert to a single recipient.
type EmailSender interface {
	SendEscalationAlert(ctx context.Context, recipient string, alert EscalationAlert) error
}
