package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"clinic-reservation-backend/internal/store"
)

type mockResetter struct {
	ResetWeekFunc func(ctx context.Context, now time.Time, dryRun bool) (store.ResetSummary, error)
}

func (m *mockResetter) ResetWeek(ctx context.Context, now time.Time, dryRun bool) (store.ResetSummary, error) {
	return m.ResetWeekFunc(ctx, now, dryRun)
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		assert.NotNil(t, NewLogger(env), env)
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("every monday", time.UTC, &mockResetter{}, nil)
	assert.Error(t, err)
}

func TestScheduler_Next(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	s, err := NewScheduler("0 0 * * 1", seoul, &mockResetter{}, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC) }

	want := time.Date(2025, 3, 17, 0, 0, 0, 0, seoul)
	assert.True(t, want.Equal(s.Next()), "next run %s", s.Next())
}

func TestScheduler_RunOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	fixed := time.Date(2025, 3, 17, 0, 0, 5, 0, time.UTC)

	var gotNow time.Time
	var gotDryRun bool
	resetter := &mockResetter{
		ResetWeekFunc: func(ctx context.Context, now time.Time, dryRun bool) (store.ResetSummary, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			gotNow, gotDryRun = now, dryRun
			return store.ResetSummary{WeekStart: "2025-03-17", Deactivated: 4, Clinics: 3}, nil
		},
	}

	s, err := NewScheduler("0 0 * * 1", time.UTC, resetter, zap.New(core))
	require.NoError(t, err)
	s.now = func() time.Time { return fixed }

	var callbacks []store.ResetSummary
	s.OnReset(func(summary store.ResetSummary) { callbacks = append(callbacks, summary) })

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, summary.Deactivated)
	assert.True(t, fixed.Equal(gotNow))
	assert.False(t, gotDryRun)
	require.Len(t, callbacks, 1)
	assert.Equal(t, 1, logs.FilterMessage("Weekly reset completed").Len())
}

func TestScheduler_OnResetFlushesResponseCache(t *testing.T) {
	resetter := &mockResetter{
		ResetWeekFunc: func(context.Context, time.Time, bool) (store.ResetSummary, error) {
			return store.ResetSummary{WeekStart: "2025-03-17"}, nil
		},
	}
	s, err := NewScheduler("0 0 * * 1", time.UTC, resetter, nil)
	require.NoError(t, err)

	responses := cache.New(time.Minute, 2*time.Minute)
	responses.SetDefault("GET /api/clinics/weekly_schedule", "stale grid")
	s.OnReset(func(store.ResetSummary) { responses.Flush() })

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, responses.ItemCount())
}

func TestScheduler_RunOnceError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	resetter := &mockResetter{
		ResetWeekFunc: func(context.Context, time.Time, bool) (store.ResetSummary, error) {
			return store.ResetSummary{}, errors.New("db down")
		},
	}
	s, err := NewScheduler("0 0 * * 1", time.UTC, resetter, zap.New(core))
	require.NoError(t, err)

	called := false
	s.OnReset(func(store.ResetSummary) { called = true })

	_, err = s.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
	assert.False(t, called)
	assert.Equal(t, 1, logs.FilterMessage("Weekly reset failed").Len())
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler("@every 1h", time.UTC, &mockResetter{}, nil)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
