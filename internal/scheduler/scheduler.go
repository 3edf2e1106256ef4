// Package scheduler runs periodic maintenance against the award engine.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRolloverCron fires at the top of every hour. The expression has a
// leading seconds field.
const DefaultRolloverCron = "0 0 * * * *"

// PoolRoller persists a due hour rollover. *award.Service implements it.
type PoolRoller interface {
	RollPool(ctx context.Context) (bool, error)
}

// Scheduler manages the cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Roller  PoolRoller
	Logger  *zap.SugaredLogger
	Ctx     context.Context
	Timeout time.Duration
}

// NewScheduler creates a new Scheduler. Jobs run with ctx and are bounded by
// a per-run timeout.
func NewScheduler(ctx context.Context, roller PoolRoller, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Roller:  roller,
		Logger:  logger,
		Ctx:     ctx,
		Timeout: 10 * time.Second,
	}
}

// RolloverCronFromEnv reads POOL_ROLLOVER_CRON. An unset variable yields the
// default; a variable set to the empty string disables the job.
func RolloverCronFromEnv() string {
	v, ok := os.LookupEnv("POOL_ROLLOVER_CRON")
	if !ok {
		return DefaultRolloverCron
	}
	return v
}

// RegisterAll registers the pool rollover task. An empty expression registers
// nothing.
func (s *Scheduler) RegisterAll(rolloverCron string) error {
	if rolloverCron == "" {
		s.Logger.Info("pool rollover job disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(rolloverCron, s.RollNow); err != nil {
		return fmt.Errorf("register rollover task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RollNow runs the rollover task immediately.
func (s *Scheduler) RollNow() {
	ctx, cancel := context.WithTimeout(s.Ctx, s.Timeout)
	defer cancel()
	rolled, err := s.Roller.RollPool(ctx)
	if err != nil {
		s.Logger.Errorw("pool rollover failed", "err", err)
		return
	}
	s.Logger.Debugw("pool rollover checked", "rolled", rolled)
}
