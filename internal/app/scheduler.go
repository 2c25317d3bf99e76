package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"clinic-reservation-backend/internal/store"
)

// WeekResetter is the part of the store the scheduler drives.
type WeekResetter interface {
	ResetWeek(ctx context.Context, now time.Time, dryRun bool) (store.ResetSummary, error)
}

// Scheduler runs the weekly reservation reset on a cron spec.
type Scheduler struct {
	cron     *cron.Cron
	resetter WeekResetter
	loc      *time.Location
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
	onReset  func(store.ResetSummary)
}

// NewScheduler registers the reset job. spec uses the standard five-field
// cron format and is evaluated in loc.
func NewScheduler(spec string, loc *time.Location, resetter WeekResetter, logger *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		resetter: resetter,
		loc:      loc,
		timeout:  time.Minute,
		now:      time.Now,
		logger:   logger,
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reset schedule %q: %w", spec, err)
	}
	return s, nil
}

// OnReset registers a callback invoked after each successful reset.
func (s *Scheduler) OnReset(fn func(store.ResetSummary)) {
	s.onReset = fn
}

// Start starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("Starting weekly reset scheduler", zap.String("location", s.loc.String()))
	s.cron.Start()
}

// Stop stops the cron loop and waits for a running reset to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("Stopping weekly reset scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Weekly reset still running at shutdown")
	}
}

// Next returns the next time the reset job fires.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(s.now().In(s.loc))
}

// RunOnce performs a single reset immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (store.ResetSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.resetter.ResetWeek(ctx, s.now().In(s.loc), false)
	if err != nil {
		s.logger.Error("Weekly reset failed", zap.Error(err))
		return summary, err
	}
	s.logger.Info("Weekly reset completed",
		zap.String("week_start", summary.WeekStart),
		zap.Int64("deactivated", summary.Deactivated),
		zap.Int64("clinics", summary.Clinics))
	if s.onReset != nil {
		s.onReset(summary)
	}
	return summary, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
