package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Pruner is anything that can drop its expired entries.
type Pruner interface {
	Prune() int
}

// Scheduler periodically prunes expired dashboard sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	interval  time.Duration
	log       *zap.Logger
}

// New creates a new Scheduler.
func New(pruner Pruner, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		pruner:    pruner,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the pruning job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.pruner == nil {
		s.log.Info("scheduler: nothing to prune; not scheduling")
		return nil
	}

	_, err := s.scheduler.Every(s.every()).Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// defaultInterval applies when no positive interval is configured.
const defaultInterval = 15 * time.Minute

func (s *Scheduler) every() time.Duration {
	if s.interval <= 0 {
		return defaultInterval
	}
	return s.interval
}

func (s *Scheduler) runOnce() {
	if n := s.pruner.Prune(); n > 0 {
		s.log.Info("scheduler: pruned expired sessions", zap.Int("removed", n))
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
