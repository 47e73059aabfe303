package sla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/case-sla-service/internal/observability"
	"github.com/spec-kit/case-sla-service/internal/repository"
)

// ErrRunInProgress is returned when another run currently holds the lock.
var ErrRunInProgress = errors.New("sla run already in progress")

// RunLock guards against concurrent pipeline runs.
type RunLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// Summary is the terminal report of one pipeline run.
type Summary struct {
	FollowUpsSent   int
	EscalationsSent int
	Errors          []string
}

// Processor sequences one pipeline run: Evaluate, Dispatch Follow-Ups,
// Dispatch Escalations, Report. It keeps no state between invocations; the
// case markers are the only memory.
type Processor struct {
	cases      repository.CaseRepository
	followUp   *FollowUpNotifier
	escalation *EscalationNotifier
	thresholds Thresholds
	lock       RunLock
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewProcessor constructs the orchestrator. lock may be nil for
// single-instance deployments without Redis.
func NewProcessor(
	cases repository.CaseRepository,
	followUp *FollowUpNotifier,
	escalation *EscalationNotifier,
	thresholds Thresholds,
	lock RunLock,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		cases:      cases,
		followUp:   followUp,
		escalation: escalation,
		thresholds: thresholds,
		lock:       lock,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one pipeline pass. An evaluation failure is fatal: nothing
// downstream can proceed without the classified sets. A failure inside the
// follow-up phase never prevents the escalation phase since the two sets are
// disjoint.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	if p.lock != nil {
		acquired, err := p.lock.Acquire(ctx)
		if err != nil {
			return Summary{}, fmt.Errorf("acquire run lock: %w", err)
		}
		if !acquired {
			return Summary{}, ErrRunInProgress
		}
		defer p.lock.Release(ctx)
	}

	now := p.now()
	start := time.Now()

	openCases, err := p.cases.ListOpen(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("evaluate open cases: %w", err)
	}

	classified := Classify(now, p.thresholds, openCases)
	p.logger.Info("sla evaluation complete",
		zap.Int("open_cases", len(openCases)),
		zap.Int("needs_follow_up", len(classified.NeedsFollowUp)),
		zap.Int("needs_escalation", len(classified.NeedsEscalation)))

	summary := Summary{}

	sent, fuErrs := p.followUp.Dispatch(ctx, classified.NeedsFollowUp, now)
	summary.FollowUpsSent = sent
	for _, e := range fuErrs {
		summary.Errors = append(summary.Errors, e.Error())
	}

	escalated, escErrs := p.escalation.Dispatch(ctx, classified.NeedsEscalation, now)
	summary.EscalationsSent = escalated
	for _, e := range escErrs {
		summary.Errors = append(summary.Errors, e.Error())
	}

	p.metrics.RecordSLARun(summary.FollowUpsSent, summary.EscalationsSent)
	p.logger.Info("sla run complete",
		zap.Int("follow_ups_sent", summary.FollowUpsSent),
		zap.Int("escalations_sent", summary.EscalationsSent),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("duration", time.Since(start)))

	return summary, nil
}

// WithClock overrides the time source; used by tests.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}
