package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name     string
	schedule Schedule
	runs     int
	err      error
}

func (j *stubJob) Name() string       { return j.name }
func (j *stubJob) Schedule() Schedule { return j.schedule }

func (j *stubJob) Execute(context.Context) error {
	j.runs++
	return j.err
}

func TestScheduler_AddAndRunJob(t *testing.T) {
	scheduler := NewSchedulerService(time.UTC)
	sweep := &stubJob{name: "sweep", schedule: Hourly}
	report := &stubJob{name: "report", schedule: DailyMorning, err: errors.New("no data")}

	require.NoError(t, scheduler.AddJob(sweep))
	require.NoError(t, scheduler.AddJob(report))
	assert.Equal(t, 2, scheduler.GetJobCount())
	assert.False(t, scheduler.IsRunning())

	require.NoError(t, scheduler.RunJob(context.Background(), "sweep"))
	assert.Equal(t, 1, sweep.runs)

	assert.EqualError(t, scheduler.RunJob(context.Background(), "report"), "no data")
	assert.Equal(t, 1, report.runs)

	assert.ErrorIs(t, scheduler.RunJob(context.Background(), "missing"), ErrJobNotFound)
}

func TestScheduler_RejectsUnknownSchedule(t *testing.T) {
	scheduler := NewSchedulerService(nil)

	err := scheduler.AddJob(&stubJob{name: "odd", schedule: Schedule(42)})

	assert.Error(t, err)
	assert.Zero(t, scheduler.GetJobCount())
}

func TestScheduler_StartWithoutJobsIsNoop(t *testing.T) {
	scheduler := NewSchedulerService(time.UTC)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.False(t, scheduler.IsRunning())
	require.NoError(t, scheduler.Stop(context.Background()))
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}
