package compress

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs nightly compression of the previous day.
type Scheduler struct {
	cron    *cron.Cron
	engine  *Engine
	logger  *slog.Logger
	timeout time.Duration
	loc     *time.Location
}

// NewScheduler creates a scheduler that compresses yesterday's events on
// the given cron expression, evaluated in loc.
func NewScheduler(engine *Engine, schedule string, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		engine:  engine,
		logger:  logger,
		timeout: 30 * time.Minute,
		loc:     loc,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins scheduling.
func (s *Scheduler) Start() {
	s.logger.Info("compression scheduler started")
	s.cron.Start()
}

// Stop stops scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("compression scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	yesterday := time.Now().In(s.loc).AddDate(0, 0, -1)
	if _, err := s.engine.CompressDay(ctx, yesterday, nil); err != nil {
		s.logger.Error("scheduled compression failed", slog.Any("error", err))
	}
}
