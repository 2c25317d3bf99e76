package remote

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher reloads local state from the server.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Syncer keeps a local schedule in step with the server.
type Syncer struct {
	target   Refresher
	interval time.Duration
	log      *zap.Logger
	// OnRefresh, if set, runs after every successful refresh.
	OnRefresh func()
}

// NewSyncer creates a syncer that refreshes target every interval.
func NewSyncer(target Refresher, interval time.Duration, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Syncer{target: target, interval: interval, log: log}
}

// Run refreshes immediately and then on every tick until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	s.log.Info("Starting schedule sync", zap.Duration("interval", s.interval))

	s.SyncOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Schedule sync shutting down")
			return
		case <-timer.C:
			s.SyncOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SyncOnce performs a single refresh. Failures are logged and the previous
// local state is kept.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	if err := s.target.Refresh(ctx); err != nil {
		s.log.Warn("Schedule sync failed", zap.Error(err))
		return err
	}
	if s.OnRefresh != nil {
		s.OnRefresh()
	}
	return nil
}
