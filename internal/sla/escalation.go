package sla

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/case-sla-service/internal/delivery"
	"github.com/spec-kit/case-sla-service/internal/domain"
	"github.com/spec-kit/case-sla-service/internal/events"
	"github.com/spec-kit/case-sla-service/internal/repository"
)

// EscalationNotifier alerts every administrator account when a case crosses
// the upper threshold. The audit record documents the SLA breach itself and
// is written before the fan-out, so it exists even if every delivery fails.
// The marker is set once the fan-out was attempted for all recipients.
type EscalationNotifier struct {
	cases           repository.CaseRepository
	admins          repository.AdminRepository
	notifications   repository.NotificationRepository
	email           delivery.EmailSender
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	adminRoles      []string
	dispatchTimeout time.Duration
}

// NewEscalationNotifier constructs the notifier.
func NewEscalationNotifier(
	cases repository.CaseRepository,
	admins repository.AdminRepository,
	notifications repository.NotificationRepository,
	email delivery.EmailSender,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
	adminRoles []string,
	dispatchTimeout time.Duration,
) *EscalationNotifier {
	return &EscalationNotifier{
		cases:           cases,
		admins:          admins,
		notifications:   notifications,
		email:           email,
		dispatcher:      dispatcher,
		logger:          logger,
		adminRoles:      adminRoles,
		dispatchTimeout: dispatchTimeout,
	}
}

// Dispatch processes the needs-escalation batch. It returns the number of
// cases whose fan-out was attempted in full plus any errors. Recipient lookup
// failure or an empty recipient set aborts the phase since there is no one to
// alert; the unmarked cases retry on the next run.
func (n *EscalationNotifier) Dispatch(ctx context.Context, batch []domain.Case, now time.Time) (int, []error) {
	if len(batch) == 0 {
		return 0, nil
	}

	recipients, err := n.admins.ListActiveByRoles(ctx, n.adminRoles)
	if err != nil {
		return 0, []error{fmt.Errorf("list escalation recipients: %w", err)}
	}
	if len(recipients) == 0 {
		// Leave the batch untouched: marking with nobody alerted would
		// suppress the escalation for the whole open period.
		n.logger.Warn("no active admin accounts for escalation; cases stay eligible",
			zap.Strings("roles", n.adminRoles))
		return 0, []error{fmt.Errorf("no active escalation recipients for roles %v", n.adminRoles)}
	}

	escalated := 0
	var errs []error

	for i := range batch {
		c := &batch[i]
		if deliveryErrs := n.escalateOne(ctx, c, recipients, now); len(deliveryErrs) > 0 {
			errs = append(errs, deliveryErrs...)
		}
		escalated++
	}
	return escalated, errs
}

func (n *EscalationNotifier) escalateOne(ctx context.Context, c *domain.Case, recipients []domain.AdminAccount, now time.Time) []error {
	hours := now.Sub(c.LastActivityAt).Hours()
	alert := delivery.EscalationAlert{
		CaseKey:            c.ExternalKey,
		EmployeeName:       c.EmployeeName,
		Category:           c.Category,
		ClientName:         c.ClientName,
		HoursSinceActivity: hours,
	}

	n.appendAuditRecord(ctx, c, hours)

	var errs []error
	for _, admin := range recipients {
		sendCtx, cancel := context.WithTimeout(ctx, n.dispatchTimeout)
		err := n.email.SendEscalationAlert(sendCtx, admin.Email, alert)
		cancel()
		if err != nil {
			n.logger.Warn("escalation delivery failed",
				zap.String("case_id", c.ID),
				zap.String("recipient", admin.Email),
				zap.Error(err))
			errs = append(errs, err)
		}
	}

	if err := n.cases.MarkEscalationSent(ctx, c.ID, now); err != nil {
		n.logger.Error("marker update failed after dispatch; duplicate escalation possible next run",
			zap.String("case_id", c.ID),
			zap.Error(err))
	}

	n.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventCaseEscalated,
		CaseID:    c.ID,
		Timestamp: now,
		Payload: events.CaseEscalatedPayload{
			HoursSinceActivity: hours,
			Recipients:         len(recipients),
		},
	})
	return errs
}

// appendAuditRecord writes one breach record per escalation event. Failure to
// append is logged and does not abort the fan-out.
func (n *EscalationNotifier) appendAuditRecord(ctx context.Context, c *domain.Case, hours float64) {
	if n.notifications == nil {
		return
	}
	record := &domain.NotificationRecord{
		CaseID:    c.ID,
		Channel:   domain.ChannelEmail,
		Recipient: "administrators",
		Message:   fmt.Sprintf("case %s escalated after %.1f hours without activity", c.ExternalKey, hours),
	}
	if err := n.notifications.Append(ctx, record); err != nil {
		n.logger.Warn("audit record append failed",
			zap.String("case_id", c.ID),
			zap.Error(err))
	}
}

func (n *EscalationNotifier) publish(ctx context.Context, event events.Event) {
	if n.dispatcher == nil {
		return
	}
	_ = n.dispatcher.Publish(ctx, event)
}
