package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/case-sla-service/internal/domain"
)

var testThresholds = Thresholds{
	FollowUp:   24 * time.Hour,
	Escalation: 48 * time.Hour,
}

func caseWithAge(id string, age time.Duration, now time.Time) domain.Case {
	return domain.Case{
		ID:             id,
		ExternalKey:    "CSE-" + id,
		Status:         domain.CaseStatusOpen,
		LastActivityAt: now.Add(-age),
	}
}

func TestClassifyRecentCaseUntouched(t *testing.T) {
	now := time.Now()
	result := Classify(now, testThresholds, []domain.Case{
		caseWithAge("a", 10*time.Hour, now),
	})

	assert.Empty(t, result.NeedsFollowUp)
	assert.Empty(t, result.NeedsEscalation)
}

func TestClassifyExactlyAtFollowUpThreshold(t *testing.T) {
	now := time.Now()
	result := Classify(now, testThresholds, []domain.Case{
		caseWithAge("a", 24*time.Hour, now),
	})

	assert.Len(t, result.NeedsFollowUp, 1)
	assert.Empty(t, result.NeedsEscalation)
}

func TestClassifyExactlyAtEscalationThreshold(t *testing.T) {
	now := time.Now()
	result := Classify(now, testThresholds, []domain.Case{
		caseWithAge("a", 48*time.Hour, now),
	})

	assert.Empty(t, result.NeedsFollowUp)
	assert.Len(t, result.NeedsEscalation, 1)
}

func TestClassifySetsAreDisjoint(t *testing.T) {
	now := time.Now()
	result := Classify(now, testThresholds, []domain.Case{
		caseWithAge("fresh", 1*time.Hour, now),
		caseWithAge("stale", 30*time.Hour, now),
		caseWithAge("breached", 72*time.Hour, now),
	})

	assert.Len(t, result.NeedsFollowUp, 1)
	assert.Len(t, result.NeedsEscalation, 1)
	assert.Equal(t, "stale", result.NeedsFollowUp[0].ID)
	assert.Equal(t, "breached", result.NeedsEscalation[0].ID)
}

func TestClassifyFollowUpMarkerSuppressesReminder(t *testing.T) {
	now := time.Now()
	sent := now.Add(-2 * time.Hour)
	c := caseWithAge("a", 30*time.Hour, now)
	c.FollowUpSentAt = &sent

	result := Classify(now, testThresholds, []domain.Case{c})

	assert.Empty(t, result.NeedsFollowUp)
	assert.Empty(t, result.NeedsEscalation)
}

func TestClassifyEscalatesRegardlessOfFollowUpMarker(t *testing.T) {
	now := time.Now()
	sent := now.Add(-26 * time.Hour)
	c := caseWithAge("a", 50*time.Hour, now)
	c.FollowUpSentAt = &sent

	result := Classify(now, testThresholds, []domain.Case{c})

	assert.Empty(t, result.NeedsFollowUp)
	assert.Len(t, result.NeedsEscalation, 1)
}

func TestClassifyEscalationMarkerSuppressesAlert(t *testing.T) {
	now := time.Now()
	sent := now.Add(-time.Hour)
	c := caseWithAge("a", 72*time.Hour, now)
	c.EscalationSentAt = &sent

	result := Classify(now, testThresholds, []domain.Case{c})

	assert.Empty(t, result.NeedsFollowUp)
	assert.Empty(t, result.NeedsEscalation)
}

func TestClassifySkipsClosedCases(t *testing.T) {
	now := time.Now()
	c := caseWithAge("a", 100*time.Hour, now)
	c.Status = domain.CaseStatusClosed

	result := Classify(now, testThresholds, []domain.Case{c})

	assert.Empty(t, result.NeedsFollowUp)
	assert.Empty(t, result.NeedsEscalation)
}

func TestClassifyWaitingCaseStillTracked(t *testing.T) {
	now := time.Now()
	c := caseWithAge("a", 30*time.Hour, now)
	c.Status = domain.CaseStatusWaiting

	result := Classify(now, testThresholds, []domain.Case{c})

	assert.Len(t, result.NeedsFollowUp, 1)
}
