package domain

import "time"

// NotificationChannel identifies the delivery channel of an audit entry.
type NotificationChannel string

const (
	ChannelSMS   NotificationChannel = "SMS"
	ChannelEmail NotificationChannel = "EMAIL"
)

// NotificationRecord is an append-only audit entry written by the SLA
// pipeline. It documents that a threshold crossing was handled, not that
// every delivery succeeded.
type NotificationRecord struct {
	ID        string
	CaseID    string
	Channel   NotificationChannel
	Recipient string
	Message   string
	CreatedAt time.Time
}
