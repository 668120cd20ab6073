// Package scheduler fires generation passes on a fixed cadence. The
// engine is idempotent, so overlapping triggers (startup kick racing the
// daily run, a manual trigger racing either) need no cross-trigger lock.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GregMSThompson/recurring-engine/internal/config"
	"github.com/GregMSThompson/recurring-engine/internal/dto"
	"github.com/GregMSThompson/recurring-engine/pkg/logger"
)

// generationEngine is the engine interface the scheduler drives.
type generationEngine interface {
	RunPass(ctx context.Context, horizon time.Time) (dto.GenerationReport, error)
}

type Scheduler struct {
	engine        generationEngine
	log           *slog.Logger
	cron          *cron.Cron
	horizonMonths int
	startupDelay  time.Duration
	startupTimer  *time.Timer
}

func New(engine generationEngine, cfg *config.Config, log *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		engine:        engine,
		log:           log,
		cron:          cron.New(),
		horizonMonths: cfg.HorizonMonths,
		startupDelay:  cfg.StartupDelay,
	}

	// Daily sweep plus a weekly safety net.
	if _, err := s.cron.AddFunc(cfg.DailySpec, func() { s.run("daily") }); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.WeeklySpec, func() { s.run("weekly") }); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins the cron cadence and schedules one pass shortly after
// process start, delayed so storage has time to become ready.
func (s *Scheduler) Start() {
	s.startupTimer = time.AfterFunc(s.startupDelay, func() { s.run("startup") })
	s.cron.Start()
	s.log.Info("scheduler started",
		"startup_delay", s.startupDelay.String(),
		"horizon_months", s.horizonMonths,
	)
}

// Stop halts the cadence and waits for any running pass to finish.
func (s *Scheduler) Stop() {
	if s.startupTimer != nil {
		s.startupTimer.Stop()
	}
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(trigger string) {
	ctx := logger.ToContext(context.Background(), s.log.With("trigger", trigger))

	horizon := time.Now().UTC().AddDate(0, s.horizonMonths, 0)
	if _, err := s.engine.RunPass(ctx, horizon); err != nil {
		s.log.Error("generation pass failed", "trigger", trigger, "error", err)
	}
}
