package services

import (
	"sync"
	"testing"
	"time"

	"bunkhouse/internal/events"
	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIn_AutoAssignPicksBackEvenUnit(t *testing.T) {
	f := newFixture(t, 26)

	stay, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{
		Guest: models.GuestDetails{GuestName: "Aisha"},
		Actor: "desk",
	})

	require.NoError(t, err)
	assert.Equal(t, "C2", stay.UnitNumber)
	assert.True(t, stay.IsCheckedIn)
	assert.Equal(t, baseTime, stay.CheckinTime)
	assert.False(t, f.unit(t, "C2").IsAvailable)

	checkins := f.notifier.ofType(events.GuestCheckin)
	require.Len(t, checkins, 1)
	assert.Equal(t, "C2", checkins[0].UnitNumber)
	assert.Equal(t, "Aisha", checkins[0].GuestName)
}

func TestCheckIn_SequentialAutoAssignOrder(t *testing.T) {
	f := newFixture(t, 26)

	var got []string
	for i := 0; i < 5; i++ {
		stay, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{Guest: models.GuestDetails{GuestName: "guest"}})
		require.NoError(t, err)
		got = append(got, stay.UnitNumber)
	}

	assert.Equal(t, []string{"C2", "C4", "C6", "C1", "C3"}, got)
}

func TestCheckIn_Failures(t *testing.T) {
	f := newFixture(t, 6)
	f.checkIn(t, "C4", "Occupant")

	tests := []struct {
		name    string
		req     CheckInRequest
		wantErr error
	}{
		{
			name:    "occupied unit",
			req:     CheckInRequest{UnitNumber: "C4", Guest: models.GuestDetails{GuestName: "Second"}},
			wantErr: ErrUnitUnavailable,
		},
		{
			name:    "unknown unit",
			req:     CheckInRequest{UnitNumber: "C99", Guest: models.GuestDetails{GuestName: "Lost"}},
			wantErr: ErrNotFound,
		},
		{
			name:    "blank guest name",
			req:     CheckInRequest{UnitNumber: "C2", Guest: models.GuestDetails{GuestName: "  "}},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Occupancy.CheckIn(f.ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 1, f.activeStayCount(t, "C4"))
	assert.True(t, f.unit(t, "C2").IsAvailable)
}

func TestCheckIn_ExcludedUnitRejected(t *testing.T) {
	f := newFixture(t, 6)

	settings := models.DefaultSettings()
	settings.ExcludedUnits = datatypesStrings("C2")
	_, err := f.svc.Settings.Update(f.ctx, settings, "admin")
	require.NoError(t, err)

	_, err = f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{UnitNumber: "C2", Guest: models.GuestDetails{GuestName: "A"}})
	assert.ErrorIs(t, err, ErrUnitUnavailable)

	stay, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{Guest: models.GuestDetails{GuestName: "B"}})
	require.NoError(t, err)
	assert.Equal(t, "C4", stay.UnitNumber)
}

func TestCheckIn_NoUnitsAvailable(t *testing.T) {
	f := newFixture(t, 2)
	f.checkIn(t, "C1", "One")
	f.checkIn(t, "C2", "Two")

	_, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{Guest: models.GuestDetails{GuestName: "Three"}})

	assert.ErrorIs(t, err, ErrNoUnitsAvailable)
}

func TestCheckIn_ConcurrentRequestsForSameUnit(t *testing.T) {
	f := newFixture(t, 6)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{
				UnitNumber: "C4",
				Guest:      models.GuestDetails{GuestName: "Racer"},
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if assert.ErrorIs(t, err, ErrUnitUnavailable) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, f.activeStayCount(t, "C4"))
}

func TestCheckOut_LeavesUnitBookableButDirty(t *testing.T) {
	f := newFixture(t, 26)
	stay := f.checkIn(t, "C7", "Budi")
	f.clock.Advance(20 * time.Hour)

	out, err := f.svc.Occupancy.CheckOut(f.ctx, stay.ID, "night-shift")

	require.NoError(t, err)
	assert.False(t, out.IsCheckedIn)
	require.NotNil(t, out.CheckoutTime)
	assert.Equal(t, baseTime.Add(20*time.Hour), *out.CheckoutTime)

	unit := f.unit(t, "C7")
	assert.True(t, unit.IsAvailable)
	assert.Equal(t, models.CleaningStatusToBeCleaned, unit.CleaningStatus)
}

func TestCheckOut_DirtyUnitCanBeReassigned(t *testing.T) {
	f := newFixture(t, 26)
	stay := f.checkIn(t, "C2", "First")

	_, err := f.svc.Occupancy.CheckOut(f.ctx, stay.ID, "desk")
	require.NoError(t, err)

	next, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{Guest: models.GuestDetails{GuestName: "Second"}})
	require.NoError(t, err)
	assert.Equal(t, "C2", next.UnitNumber)
}

func TestCheckOut_NotFound(t *testing.T) {
	f := newFixture(t, 6)
	stay := f.checkIn(t, "C2", "Once")

	_, err := f.svc.Occupancy.CheckOut(f.ctx, stay.ID, "desk")
	require.NoError(t, err)

	_, err = f.svc.Occupancy.CheckOut(f.ctx, stay.ID, "desk")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Occupancy.CheckOut(f.ctx, uuid.New(), "desk")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckOut_OpenProblemKeepsUnitUnavailable(t *testing.T) {
	f := newFixture(t, 6)
	stay := f.checkIn(t, "C2", "Guest")

	_, err := f.svc.Problems.Report(f.ctx, "C2", "Leaking pipe", "housekeeping")
	require.NoError(t, err)

	_, err = f.svc.Occupancy.CheckOut(f.ctx, stay.ID, "desk")
	require.NoError(t, err)

	assert.False(t, f.unit(t, "C2").IsAvailable)
}

func TestUndoLastCheckout_RoundTrip(t *testing.T) {
	f := newFixture(t, 6)
	stay := f.checkIn(t, "C2", "Returning")
	before := f.unit(t, "C2")

	_, err := f.svc.Occupancy.CheckOut(f.ctx, stay.ID, "desk")
	require.NoError(t, err)

	reopened, err := f.svc.Occupancy.UndoLastCheckout(f.ctx, "desk")
	require.NoError(t, err)

	assert.Equal(t, stay.ID, reopened.ID)
	assert.True(t, reopened.IsCheckedIn)
	assert.Nil(t, reopened.CheckoutTime)

	after := f.unit(t, "C2")
	assert.Equal(t, before.IsAvailable, after.IsAvailable)
	assert.False(t, after.IsAvailable)
	assert.Equal(t, before.CleaningStatus, after.CleaningStatus)
	assert.Equal(t, models.CleaningStatusCleaned, after.CleaningStatus)
	assert.Equal(t, 1, f.activeStayCount(t, "C2"))
}

func TestUndoLastCheckout_NothingToUndo(t *testing.T) {
	f := newFixture(t, 6)
	f.checkIn(t, "C2", "Still here")

	_, err := f.svc.Occupancy.UndoLastCheckout(f.ctx, "desk")

	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestUndoLastCheckout_UnitAlreadyRelet(t *testing.T) {
	f := newFixture(t, 6)
	stay := f.checkIn(t, "C2", "Leaver")

	_, err := f.svc.Occupancy.CheckOut(f.ctx, stay.ID, "desk")
	require.NoError(t, err)
	f.checkIn(t, "C2", "Newcomer")

	_, err = f.svc.Occupancy.UndoLastCheckout(f.ctx, "desk")

	assert.ErrorIs(t, err, ErrUnitUnavailable)
	assert.Equal(t, 1, f.activeStayCount(t, "C2"))
}

func TestListHistory_FiltersByGuest(t *testing.T) {
	f := newFixture(t, 6)
	for _, name := range []string{"Alice", "Bob"} {
		stay := f.checkIn(t, "", name)
		f.clock.Advance(time.Hour)
		_, err := f.svc.Occupancy.CheckOut(f.ctx, stay.ID, "desk")
		require.NoError(t, err)
	}

	page, err := f.svc.Occupancy.ListHistory(
		f.ctx,
		repositories.Pagination{Page: 1, Limit: 10},
		repositories.StayFilter{GuestName: "ali"},
	)

	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Alice", page.Data[0].GuestName)
	assert.Equal(t, int64(1), page.Pagination.Total)
}

func TestOverdue(t *testing.T) {
	f := newFixture(t, 6)
	yesterday := baseTime.Add(-24 * time.Hour)
	tomorrow := baseTime.Add(24 * time.Hour)

	_, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{
		UnitNumber:           "C1",
		Guest:                models.GuestDetails{GuestName: "Late"},
		ExpectedCheckoutDate: &yesterday,
	})
	require.NoError(t, err)
	_, err = f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{
		UnitNumber:           "C2",
		Guest:                models.GuestDetails{GuestName: "OnTime"},
		ExpectedCheckoutDate: &tomorrow,
	})
	require.NoError(t, err)

	overdue, err := f.svc.Occupancy.Overdue(f.ctx)

	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Late", overdue[0].GuestName)
}

func TestOverdue_UsesHostelCalendarDate(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 11:00 local on 10 March.
	clock := &testClock{now: time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)}
	f := newFixtureWith(t, repositories.NewMemoryStoreWithClock(clock.Now), clock, 6, newYork)

	dueToday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dueYesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	for unit, due := range map[string]*time.Time{"C1": &dueToday, "C2": &dueYesterday} {
		_, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{
			UnitNumber:           unit,
			Guest:                models.GuestDetails{GuestName: "Guest " + unit},
			ExpectedCheckoutDate: due,
		})
		require.NoError(t, err)
	}

	overdue, err := f.svc.Occupancy.Overdue(f.ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "C2", overdue[0].UnitNumber)

	// 22:00 local, already 11 March in UTC.
	f.clock.Advance(11 * time.Hour)
	overdue, err = f.svc.Occupancy.Overdue(f.ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "C2", overdue[0].UnitNumber)

	report, err := f.svc.Reports.DailyReport(f.ctx)
	require.NoError(t, err)
	assert.Contains(t, report, "Guest C2 (C2) expected 2026-03-09")
	assert.NotContains(t, report, "Guest C1 (C1) expected")
}
