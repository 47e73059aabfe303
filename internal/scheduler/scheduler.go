// Package scheduler runs the SLA pipeline on a fixed cadence using gocron v2.
package scheduler

import (
	"context"
	"errors"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/case-sla-service/internal/config"
	"github.com/spec-kit/case-sla-service/internal/sla"
)

// Scheduler owns the periodic SLA job.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *zap.Logger
}

// New creates the scheduler and registers the SLA job. Singleton mode ensures
// a slow run is never overlapped by the next tick; the processor's run lock
// additionally covers manual triggers and other instances.
func New(processor *sla.Processor, cfg config.SLAConfig, logger *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(cfg.RunInterval()),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout())
			defer cancel()
			runOnce(ctx, processor, logger)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("sla-processor"),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("registered sla job", zap.Duration("interval", cfg.RunInterval()))
	return &Scheduler{scheduler: s, logger: logger}, nil
}

func runOnce(ctx context.Context, processor *sla.Processor, logger *zap.Logger) {
	summary, err := processor.Run(ctx)
	if err != nil {
		if errors.Is(err, sla.ErrRunInProgress) {
			logger.Debug("scheduled sla run skipped; another run holds the lock")
			return
		}
		if ctx.Err() != nil {
			return
		}
		logger.Error("scheduled sla run failed", zap.Error(err))
		return
	}
	if len(summary.Errors) > 0 {
		logger.Warn("scheduled sla run finished with dispatch errors",
			zap.Int("follow_ups_sent", summary.FollowUpsSent),
			zap.Int("escalations_sent", summary.EscalationsSent),
			zap.Strings("errors", summary.Errors))
	}
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Warn("scheduler shutdown", zap.Error(err))
	}
}
