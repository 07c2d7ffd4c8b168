package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"bunkhouse/config"
	"bunkhouse/internal/events"
	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweeperFunc func(ctx context.Context) (int64, error)

func (f sweeperFunc) SweepExpired(ctx context.Context) (int64, error) { return f(ctx) }

type publisherFunc func(ctx context.Context) error

func (f publisherFunc) PublishDailyReport(ctx context.Context) error { return f(ctx) }

func TestTokenSweepJob(t *testing.T) {
	calls := 0
	job := NewTokenSweepJob(sweeperFunc(func(context.Context) (int64, error) {
		calls++
		return 3, nil
	}), services.Hourly)

	assert.Equal(t, TokenSweepJobName, job.Name())
	assert.Equal(t, services.Hourly, job.Schedule())
	require.NoError(t, job.Execute(context.Background()))
	assert.Equal(t, 1, calls)

	failing := NewTokenSweepJob(sweeperFunc(func(context.Context) (int64, error) {
		return 0, errors.New("db gone")
	}), services.Hourly)
	assert.EqualError(t, failing.Execute(context.Background()), "db gone")
}

func TestDailyReportJob(t *testing.T) {
	job := NewDailyReportJob(publisherFunc(func(context.Context) error { return nil }), services.DailyMorning)

	assert.Equal(t, DailyReportJobName, job.Name())
	assert.Equal(t, services.DailyMorning, job.Schedule())
	assert.NoError(t, job.Execute(context.Background()))

	failing := NewDailyReportJob(publisherFunc(func(context.Context) error {
		return errors.New("notifier down")
	}), services.DailyMorning)
	assert.EqualError(t, failing.Execute(context.Background()), "notifier down")
}

func TestRegisterAllJobs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var published []events.Notification
	notifier := events.NotifierFunc(func(_ context.Context, n events.Notification) error {
		published = append(published, n)
		return nil
	})

	store := repositories.NewMemoryStore()
	svc := services.NewWithClock(store, nil, notifier, clock, time.UTC)
	_, err := svc.Units.Seed(ctx, 2)
	require.NoError(t, err)

	_, err = svc.Tokens.Create(ctx, services.CreateTokenRequest{UnitNumber: "C1", ExpiresInHours: 1})
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)

	scheduler := services.NewSchedulerService(time.UTC)
	require.NoError(t, RegisterAllJobs(scheduler, config.Config{SchedulerEnabled: false}, svc))
	assert.Equal(t, 2, scheduler.GetJobCount())
	assert.False(t, scheduler.IsRunning())

	require.NoError(t, scheduler.RunJob(ctx, TokenSweepJobName))
	active, err := svc.Tokens.ListActive(ctx, repositories.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, active.Data)

	require.NoError(t, scheduler.RunJob(ctx, DailyReportJobName))
	require.Len(t, published, 1)
	assert.Equal(t, events.DailyReport, published[0].Type)
	assert.Contains(t, published[0].Report, "OCCUPANCY")

	assert.ErrorIs(t, scheduler.RunJob(ctx, "Unknown"), services.ErrJobNotFound)
}
