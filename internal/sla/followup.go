package sla

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/case-sla-service/internal/delivery"
	"github.com/spec-kit/case-sla-service/internal/domain"
	"github.com/spec-kit/case-sla-service/internal/events"
	"github.com/spec-kit/case-sla-service/internal/repository"
)

// FollowUpNotifier sends the lower-threshold SMS reminder to each case
// contact. One case's failure never blocks the rest of the batch, and a case
// whose send failed stays unmarked so the next run retries it.
type FollowUpNotifier struct {
	cases           repository.CaseRepository
	notifications   repository.NotificationRepository
	sms             delivery.SMSSender
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	dispatchTimeout time.Duration
}

// NewFollowUpNotifier constructs the notifier.
func NewFollowUpNotifier(
	cases repository.CaseRepository,
	notifications repository.NotificationRepository,
	sms delivery.SMSSender,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
	dispatchTimeout time.Duration,
) *FollowUpNotifier {
	return &FollowUpNotifier{
		cases:           cases,
		notifications:   notifications,
		sms:             sms,
		dispatcher:      dispatcher,
		logger:          logger,
		dispatchTimeout: dispatchTimeout,
	}
}

// Dispatch processes the needs-follow-up batch sequentially and returns the
// number of reminders sent plus per-item errors.
func (n *FollowUpNotifier) Dispatch(ctx context.Context, batch []domain.Case, now time.Time) (int, []error) {
	sent := 0
	var errs []error

	for i := range batch {
		c := &batch[i]
		if err := n.dispatchOne(ctx, c, now); err != nil {
			n.logger.Warn("follow-up dispatch failed",
				zap.String("case_id", c.ID),
				zap.String("case_key", c.ExternalKey),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errs
}

func (n *FollowUpNotifier) dispatchOne(ctx context.Context, c *domain.Case, now time.Time) error {
	sendCtx, cancel := context.WithTimeout(ctx, n.dispatchTimeout)
	defer cancel()

	msg := delivery.FollowUpMessage{
		CaseKey:      c.ExternalKey,
		PhoneNumber:  c.ContactPhone,
		EmployeeName: c.EmployeeName,
		Category:     c.Category,
	}
	if err := n.sms.SendFollowUpReminder(sendCtx, msg); err != nil {
		return err
	}

	n.appendAuditRecord(ctx, c, msg)

	// Marker write failure is a distinct condition: the SMS went out, so
	// the next run may notify this contact again. Surface it loudly but do
	// not undo the dispatch count.
	if err := n.cases.MarkFollowUpSent(ctx, c.ID, now); err != nil {
		n.logger.Error("marker update failed after dispatch; duplicate follow-up possible next run",
			zap.String("case_id", c.ID),
			zap.Error(err))
	}

	n.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventFollowUpSent,
		CaseID:    c.ID,
		Timestamp: now,
		Payload: events.FollowUpSentPayload{
			Recipient: c.ContactPhone,
			Category:  c.Category,
		},
	})
	return nil
}

func (n *FollowUpNotifier) appendAuditRecord(ctx context.Context, c *domain.Case, msg delivery.FollowUpMessage) {
	if n.notifications == nil {
		return
	}
	record := &domain.NotificationRecord{
		CaseID:    c.ID,
		Channel:   domain.ChannelSMS,
		Recipient: c.ContactPhone,
		Message:   "follow-up reminder for case " + msg.CaseKey,
	}
	if err := n.notifications.Append(ctx, record); err != nil {
		n.logger.Warn("audit record append failed",
			zap.String("case_id", c.ID),
			zap.Error(err))
	}
}

func (n *FollowUpNotifier) publish(ctx context.Context, event events.Event) {
	if n.dispatcher == nil {
		return
	}
	_ = n.dispatcher.Publish(ctx, event)
}
