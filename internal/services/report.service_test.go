package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bunkhouse/internal/events"
	"bunkhouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Occupancy(t *testing.T) {
	f := newFixture(t, 26)
	f.checkIn(t, "C1", "One")
	f.checkIn(t, "C2", "Two")

	_, err := f.svc.Units.SetToRent(f.ctx, "C26", false)
	require.NoError(t, err)

	summary, err := f.svc.Reports.Occupancy(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 25, summary.Total)
	assert.Equal(t, 2, summary.Occupied)
	assert.Equal(t, 23, summary.Available)
	assert.Equal(t, "8.00", summary.OccupancyRate.StringFixed(2))
}

func TestOccupancyRate(t *testing.T) {
	tests := []struct {
		occupied, total int
		want            string
	}{
		{0, 0, "0"},
		{2, 26, "7.69"},
		{1, 3, "33.33"},
		{26, 26, "100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, occupancyRate(tt.occupied, tt.total).String())
	}
}

func TestReport_Sections(t *testing.T) {
	f := newFixture(t, 8)
	f.checkIn(t, "C2", "Guest")
	_, err := f.svc.Problems.Report(f.ctx, "C7", "Broken light", "desk")
	require.NoError(t, err)

	sections, err := f.svc.Reports.Sections(f.ctx)
	require.NoError(t, err)
	require.Len(t, sections, 3)

	back := sections[0]
	assert.Equal(t, models.SectionBack, back.Section)
	assert.Equal(t, 6, back.Total)
	assert.Equal(t, []string{"C2"}, back.Occupied)
	assert.Equal(t, []string{"C1", "C3", "C4", "C5", "C6"}, back.Available)

	assert.Equal(t, models.SectionMiddle, sections[1].Section)
	assert.Zero(t, sections[1].Total)

	front := sections[2]
	assert.Equal(t, []string{"C8"}, front.Available)
	assert.Equal(t, []string{"C7"}, front.OutOfService)
}

func TestReport_MaintenanceExport(t *testing.T) {
	f := newFixture(t, 12)

	text, err := f.svc.Reports.MaintenanceExport(f.ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "No active maintenance issues")

	_, err = f.svc.Problems.Report(f.ctx, "C10", "Socket dead", "alice")
	require.NoError(t, err)
	_, err = f.svc.Problems.Report(f.ctx, "C3", "Door squeaks", "bob")
	require.NoError(t, err)

	text, err = f.svc.Reports.MaintenanceExport(f.ctx)
	require.NoError(t, err)

	assert.Contains(t, text, "2 open issue(s) across 2 unit(s)")
	assert.Contains(t, text, "  - Door squeaks (reported by bob, 2026-03-10)")
	assert.Less(t, strings.Index(text, "C3:"), strings.Index(text, "C10:"))
}

func TestReport_DailyReportPublished(t *testing.T) {
	f := newFixture(t, 6)
	yesterday := baseTime.Add(-24 * time.Hour)
	_, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{
		UnitNumber:           "C1",
		Guest:                models.GuestDetails{GuestName: "Overstayer"},
		ExpectedCheckoutDate: &yesterday,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Reports.PublishDailyReport(f.ctx))

	reports := f.notifier.ofType(events.DailyReport)
	require.Len(t, reports, 1)

	report := reports[0].Report
	assert.Contains(t, report, "Occupancy rate: 16.67%")
	assert.Contains(t, report, "BACK (6 units):")
	assert.Contains(t, report, "Checked-in guests: 1")
	assert.Contains(t, report, "Overstayer (C1) expected 2026-03-09")
	assert.Contains(t, report, "MAINTENANCE STATUS")
	assert.Contains(t, report, "Generated: 2026-03-10 08:00:00 UTC")
}

func TestReport_PublishFailureReturned(t *testing.T) {
	store := newFixture(t, 2).store
	failing := events.NotifierFunc(func(context.Context, events.Notification) error {
		return errors.New("broker down")
	})
	svc := NewWithClock(store, nil, failing, (&testClock{now: baseTime}).Now, time.UTC)

	err := svc.Reports.PublishDailyReport(context.Background())

	assert.EqualError(t, err, "broker down")
}
