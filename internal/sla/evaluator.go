// Package sla implements the case escalation pipeline: a pure rule evaluator
// that classifies open cases against the two SLA thresholds, the follow-up
// and escalation notifiers that carry the delivery side effects, and the
// processor that sequences them per run.
package sla

import (
	"time"

	"github.com/spec-kit/case-sla-service/internal/domain"
)

// Thresholds is the SLA policy applied during classification.
// FollowUp must be below Escalation.
type Thresholds struct {
	FollowUp   time.Duration
	Escalation time.Duration
}

// Classification holds the two disjoint sets produced by one evaluation pass.
type Classification struct {
	NeedsFollowUp   []domain.Case
	NeedsEscalation []domain.Case
}

// Classify buckets cases by elapsed time since last activity. It has no side
// effects: markers are written only after successful dispatch, never here.
//
// A case lands in NeedsFollowUp when its elapsed time is at or past the
// follow-up threshold but below the escalation threshold and no follow-up was
// sent yet. It lands in NeedsEscalation when elapsed time is at or past the
// escalation threshold and no escalation was sent yet, regardless of the
// follow-up marker.
func Classify(now time.Time, t Thresholds, cases []domain.Case) Classification {
	var result Classification
	for _, c := range cases {
		if !c.IsOpen() {
			continue
		}
		elapsed := now.Sub(c.LastActivityAt)
		switch {
		case elapsed >= t.Escalation:
			if c.EscalationSentAt == nil {
				result.NeedsEscalation = append(result.NeedsEscalation, c)
			}
		case elapsed >= t.FollowUp:
			if c.FollowUpSentAt == nil {
				result.NeedsFollowUp = append(result.NeedsFollowUp, c)
			}
		}
	}
	return result
}
