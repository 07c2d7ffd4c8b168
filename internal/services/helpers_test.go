package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"bunkhouse/internal/database"
	"bunkhouse/internal/events"
	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

var baseTime = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []events.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n events.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *recordingNotifier) ofType(t events.NotificationType) []events.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []events.Notification
	for _, n := range r.notifications {
		if n.Type == t {
			matched = append(matched, n)
		}
	}
	return matched
}

type fixture struct {
	ctx      context.Context
	store    repositories.Store
	svc      Service
	clock    *testClock
	notifier *recordingNotifier
}

// newFixture seeds units C1..Cn with the default settings on the memory
// backend.
func newFixture(t *testing.T, units int) fixture {
	t.Helper()
	clock := &testClock{now: baseTime}
	return newFixtureWith(t, repositories.NewMemoryStoreWithClock(clock.Now), clock, units, time.UTC)
}

func newFixtureWith(
	t *testing.T,
	store repositories.Store,
	clock *testClock,
	units int,
	location *time.Location,
) fixture {
	t.Helper()

	notifier := &recordingNotifier{}
	svc := NewWithClock(store, nil, notifier, clock.Now, location)

	ctx := context.Background()
	_, err := svc.Units.Seed(ctx, units)
	require.NoError(t, err)

	return fixture{ctx: ctx, store: store, svc: svc, clock: clock, notifier: notifier}
}

func newSQLiteStore(t *testing.T) repositories.Store {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "sqlite",
		DSN:        ":memory:",
	}), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := database.NewFromGorm(gormDB)
	require.NoError(t, db.MigrateModels())

	return repositories.NewGormStore(db)
}

// forEachBackend runs fn against a seeded fixture on the memory store and on
// GORM over sqlite. wrap, when set, decorates the store before services are
// built on it.
func forEachBackend(
	t *testing.T,
	units int,
	wrap func(repositories.Store) repositories.Store,
	fn func(t *testing.T, f fixture),
) {
	backends := []struct {
		name string
		new  func(t *testing.T, clock *testClock) repositories.Store
	}{
		{name: "memory", new: func(_ *testing.T, clock *testClock) repositories.Store {
			return repositories.NewMemoryStoreWithClock(clock.Now)
		}},
		{name: "gorm", new: func(t *testing.T, _ *testClock) repositories.Store { return newSQLiteStore(t) }},
	}

	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			clock := &testClock{now: baseTime}
			store := backend.new(t, clock)
			if wrap != nil {
				store = wrap(store)
			}
			fn(t, newFixtureWith(t, store, clock, units, time.UTC))
		})
	}
}

func (f fixture) unit(t *testing.T, number string) models.Unit {
	t.Helper()
	unit, err := f.svc.Units.Get(f.ctx, number)
	require.NoError(t, err)
	return *unit
}

func (f fixture) checkIn(t *testing.T, number, guest string) *models.Stay {
	t.Helper()
	stay, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{
		UnitNumber: number,
		Guest:      models.GuestDetails{GuestName: guest},
		Actor:      "desk",
	})
	require.NoError(t, err)
	return stay
}

func (f fixture) activeStayCount(t *testing.T, number string) int {
	t.Helper()
	page, err := f.svc.Occupancy.ListActive(f.ctx, repositories.Pagination{Page: 1, Limit: repositories.MaxLimit})
	require.NoError(t, err)

	count := 0
	for _, stay := range page.Data {
		if stay.UnitNumber == number {
			count++
		}
	}
	return count
}

func datatypesStrings(values ...string) datatypes.JSONType[[]string] {
	return datatypes.NewJSONType(values)
}

func datatypesPreferences(prefs map[string][]models.UnitSection) datatypes.JSONType[map[string][]models.UnitSection] {
	return datatypes.NewJSONType(prefs)
}
