package sla

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/case-sla-service/internal/domain"
	"github.com/spec-kit/case-sla-service/internal/events"
	"github.com/spec-kit/case-sla-service/internal/observability"
)

type pipelineFixture struct {
	cases         *fakeCaseRepo
	admins        *fakeAdminRepo
	notifications *fakeNotificationRepo
	sms           *fakeSMSSender
	email         *fakeEmailSender
	lock          *fakeRunLock
	dispatcher    events.Dispatcher
	processor     *Processor
	now           time.Time
}

func newPipelineFixture(t *testing.T, cases ...domain.Case) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		cases: newFakeCaseRepo(cases...),
		admins: &fakeAdminRepo{admins: []domain.AdminAccount{
			{ID: "adm-1", Email: "first@example.com", Role: domain.AdminRoleAdmin, Active: true},
			{ID: "adm-2", Email: "second@example.com", Role: domain.AdminRoleAdmin, Active: true},
		}},
		notifications: &fakeNotificationRepo{},
		sms:           &fakeSMSSender{},
		email:         &fakeEmailSender{},
		lock:          &fakeRunLock{},
		dispatcher:    events.NewInMemoryDispatcher(),
		now:           time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}

	logger := zap.NewNop()
	followUp := NewFollowUpNotifier(f.cases, f.notifications, f.sms, f.dispatcher, logger, time.Second)
	escalation := NewEscalationNotifier(f.cases, f.admins, f.notifications, f.email, f.dispatcher, logger, []string{"ADMIN"}, time.Second)
	f.processor = NewProcessor(
		f.cases,
		followUp,
		escalation,
		testThresholds,
		f.lock,
		observability.NewMetrics(),
		logger,
	).WithClock(func() time.Time { return f.now })

	return f
}

func (f *pipelineFixture) staleCase(id string, age time.Duration) domain.Case {
	return domain.Case{
		ID:             id,
		ExternalKey:    "CSE-" + id,
		Title:          "printer offline",
		Category:       "Hardware",
		Priority:       domain.CasePriorityHigh,
		Status:         domain.CaseStatusOpen,
		EmployeeName:   "Riley",
		ContactPhone:   "+15550100",
		ClientName:     "Acme Corp",
		LastActivityAt: f.now.Add(-age),
	}
}

func TestRunEscalatesBreachedCase(t *testing.T) {
	f := newPipelineFixture(t)
	c := f.staleCase("c1", 50*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &c))

	summary, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.FollowUpsSent)
	assert.Equal(t, 1, summary.EscalationsSent)
	assert.Empty(t, summary.Errors)

	require.Len(t, f.email.sent, 2)
	assert.Equal(t, "first@example.com", f.email.sent[0].recipient)
	assert.Equal(t, "second@example.com", f.email.sent[1].recipient)
	assert.Equal(t, "CSE-c1", f.email.sent[0].alert.CaseKey)
	assert.InDelta(t, 50.0, f.email.sent[0].alert.HoursSinceActivity, 0.01)

	require.Len(t, f.notifications.records, 1)
	assert.Equal(t, domain.ChannelEmail, f.notifications.records[0].Channel)
	assert.Equal(t, "administrators", f.notifications.records[0].Recipient)

	updated := f.cases.get("c1")
	require.NotNil(t, updated.EscalationSentAt)
	assert.True(t, updated.EscalationSentAt.Equal(f.now))
	assert.Nil(t, updated.FollowUpSentAt)
}

func TestRunSendsFollowUpReminder(t *testing.T) {
	f := newPipelineFixture(t)
	c := f.staleCase("c1", 30*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &c))

	summary, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FollowUpsSent)
	assert.Equal(t, 0, summary.EscalationsSent)

	require.Len(t, f.sms.sent, 1)
	assert.Equal(t, "+15550100", f.sms.sent[0].PhoneNumber)
	assert.Equal(t, "CSE-c1", f.sms.sent[0].CaseKey)
	assert.Empty(t, f.email.sent)

	require.Len(t, f.notifications.records, 1)
	assert.Equal(t, domain.ChannelSMS, f.notifications.records[0].Channel)

	updated := f.cases.get("c1")
	require.NotNil(t, updated.FollowUpSentAt)
	assert.Nil(t, updated.EscalationSentAt)
}

func TestRunLeavesRecentCasesAlone(t *testing.T) {
	f := newPipelineFixture(t)
	c := f.staleCase("c1", 10*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &c))

	summary, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{}, summary)
	assert.Empty(t, f.sms.sent)
	assert.Empty(t, f.email.sent)
	assert.Empty(t, f.notifications.records)
}

func TestRunIsIdempotentAcrossConsecutiveRuns(t *testing.T) {
	f := newPipelineFixture(t)
	stale := f.staleCase("c1", 30*time.Hour)
	breached := f.staleCase("c2", 60*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &stale))
	require.NoError(t, f.cases.Create(context.Background(), &breached))

	first, err := f.processor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.FollowUpsSent)
	assert.Equal(t, 1, first.EscalationsSent)

	second, err := f.processor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.FollowUpsSent)
	assert.Equal(t, 0, second.EscalationsSent)

	assert.Len(t, f.sms.sent, 1)
	assert.Len(t, f.email.sent, 2)
}

func TestRunFollowUpFailureDoesNotBlockOthers(t *testing.T) {
	f := newPipelineFixture(t)
	f.sms.failFor = map[string]error{"+15550199": errors.New("twilio unavailable")}

	failing := f.staleCase("c1", 30*time.Hour)
	failing.ContactPhone = "+15550199"
	healthy := f.staleCase("c2", 30*time.Hour)
	breached := f.staleCase("c3", 60*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &failing))
	require.NoError(t, f.cases.Create(context.Background(), &healthy))
	require.NoError(t, f.cases.Create(context.Background(), &breached))

	summary, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FollowUpsSent)
	assert.Equal(t, 1, summary.EscalationsSent)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "twilio unavailable")

	// The failed case keeps a nil marker so the next run retries it.
	assert.Nil(t, f.cases.get("c1").FollowUpSentAt)
	assert.NotNil(t, f.cases.get("c2").FollowUpSentAt)
}

func TestRunEscalationDeliveryFailureStillMarks(t *testing.T) {
	f := newPipelineFixture(t)
	f.email.failFor = map[string]error{"second@example.com": errors.New("smtp refused")}

	c := f.staleCase("c1", 60*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &c))

	summary, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.EscalationsSent)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "smtp refused")

	// One recipient got the alert, the breach audit record exists and the
	// marker is set: the escalation was handled even though a delivery failed.
	assert.Len(t, f.email.sent, 1)
	assert.Len(t, f.notifications.records, 1)
	assert.NotNil(t, f.cases.get("c1").EscalationSentAt)
}

func TestRunEscalationBatchSurvivesPerRecipientFailures(t *testing.T) {
	f := newPipelineFixture(t)
	f.email.failFor = map[string]error{"second@example.com": errors.New("smtp refused")}

	for _, id := range []string{"c1", "c2", "c3"} {
		c := f.staleCase(id, 60*time.Hour)
		require.NoError(t, f.cases.Create(context.Background(), &c))
	}

	summary, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	// Every case's fan-out is attempted even though one recipient fails for
	// each of them.
	assert.Equal(t, 3, summary.EscalationsSent)
	assert.Len(t, summary.Errors, 3)
	assert.Len(t, f.email.sent, 3)
	assert.Len(t, f.notifications.records, 3)
	for _, id := range []string{"c1", "c2", "c3"} {
		assert.NotNil(t, f.cases.get(id).EscalationSentAt, id)
	}
}

func TestRunMarkerWriteFailureKeepsDispatchCount(t *testing.T) {
	f := newPipelineFixture(t)
	f.cases.markErr = errors.New("row lock timeout")

	c := f.staleCase("c1", 30*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &c))

	summary, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	// The SMS went out, so the run counts it; the failed marker write is
	// logged but not reported as a dispatch error.
	assert.Equal(t, 1, summary.FollowUpsSent)
	assert.Empty(t, summary.Errors)
	assert.Len(t, f.sms.sent, 1)
	assert.Nil(t, f.cases.get("c1").FollowUpSentAt)

	// With the marker still clear the next run sends a duplicate reminder.
	second, err := f.processor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.FollowUpsSent)
	assert.Len(t, f.sms.sent, 2)
}

func TestRunEmptyRecipientSetLeavesCasesEligible(t *testing.T) {
	f := newPipelineFixture(t)
	f.admins.admins = nil

	c := f.staleCase("c1", 60*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &c))

	summary, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.EscalationsSent)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "no active escalation recipients")

	// No marker and no audit record: the case escalates once admins exist.
	assert.Nil(t, f.cases.get("c1").EscalationSentAt)
	assert.Empty(t, f.notifications.records)
	assert.Empty(t, f.email.sent)
}

func TestRunRecipientLookupFailureAbortsEscalationPhase(t *testing.T) {
	f := newPipelineFixture(t)
	f.admins.listErr = errors.New("connection reset")

	c := f.staleCase("c1", 60*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &c))

	summary, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.EscalationsSent)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "list escalation recipients")

	// Nothing was attempted, so the marker stays clear for the next run.
	assert.Nil(t, f.cases.get("c1").EscalationSentAt)
	assert.Empty(t, f.notifications.records)
}

func TestRunEvaluationFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.cases.listErr = errors.New("database down")

	summary, err := f.processor.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluate open cases")
	assert.Equal(t, Summary{}, summary)
	assert.Equal(t, 1, f.lock.releases)
}

func TestRunReturnsErrRunInProgressWhenLockHeld(t *testing.T) {
	f := newPipelineFixture(t)
	f.lock.held = true

	_, err := f.processor.Run(context.Background())
	require.ErrorIs(t, err, ErrRunInProgress)
	assert.Equal(t, 0, f.lock.releases)
}

func TestRunReleasesLockAfterSuccess(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.processor.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.lock.acquires)
	assert.Equal(t, 1, f.lock.releases)
}

func TestRunPublishesEscalationEvent(t *testing.T) {
	f := newPipelineFixture(t)
	c := f.staleCase("c1", 60*time.Hour)
	require.NoError(t, f.cases.Create(context.Background(), &c))

	var captured []events.Event
	f.dispatcher.Subscribe(events.EventCaseEscalated, func(_ context.Context, e events.Event) error {
		captured = append(captured, e)
		return nil
	})

	_, err := f.processor.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, captured, 1)
	assert.Equal(t, "c1", captured[0].CaseID)
	payload, ok := captured[0].Payload.(events.CaseEscalatedPayload)
	require.True(t, ok)
	assert.InDelta(t, 60.0, payload.HoursSinceActivity, 0.01)
	assert.Equal(t, 2, payload.Recipients)
}
