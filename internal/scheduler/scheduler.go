// Package scheduler runs the collection and evaluation tasks on cron specs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner is one schedulable task invocation.
type Runner func(ctx context.Context) error

// Scheduler drives the periodic pipeline tasks in-process. Each tick gets its
// own timeout so a stuck provider cannot wedge the schedule.
type Scheduler struct {
	cron        *cron.Cron
	log         *zap.Logger
	tickTimeout time.Duration
}

// New creates a stopped scheduler.
func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		log:         log,
		tickTimeout: 2 * time.Minute,
	}
}

// Add registers a task under the given cron spec. Specs use the robfig/cron
// format, including descriptors such as "@every 1m".
func (s *Scheduler) Add(name, spec string, run Runner) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.tickTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			s.log.Error("scheduled task failed",
				zap.String("task", name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		s.log.Debug("scheduled task completed",
			zap.String("task", name),
			zap.Duration("duration", time.Since(start)),
		)
	})
	if err != nil {
		return fmt.Errorf("registering task %s with spec %q: %w", name, spec, err)
	}
	return nil
}

// Start begins running registered tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", zap.Int("tasks", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop halts the schedule and waits for running tasks to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
