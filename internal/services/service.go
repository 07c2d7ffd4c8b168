package services

import (
	"time"

	"bunkhouse/config"
	"bunkhouse/internal/events"
	"bunkhouse/internal/repositories"
	"bunkhouse/pkg/logger"

	"github.com/valkey-io/valkey-go"
)

type Service struct {
	Settings     *SettingsService
	Availability *AvailabilityService
	Units        *UnitRegistryService
	Occupancy    *OccupancyService
	Problems     *ProblemService
	Tokens       *TokenService
	Reports      *ReportService
	Scheduler    *SchedulerService
	Clock        Clock
}

// New wires every service over one store. cache may be nil, which disables
// settings caching.
func New(
	store repositories.Store,
	cache valkey.Client,
	config config.Config,
	notifier events.Notifier,
) (Service, error) {
	location, err := LoadLocation(config.ReportTimezone)
	if err != nil {
		return Service{}, err
	}

	return NewWithClock(store, cache, notifier, SystemClock, location), nil
}

func NewWithClock(
	store repositories.Store,
	cache valkey.Client,
	notifier events.Notifier,
	clock Clock,
	location *time.Location,
) Service {
	settings := NewSettingsService(store, cache, clock)
	availability := NewAvailabilityService(store, settings)
	occupancy := NewOccupancyService(store, settings, availability, notifier, clock, location)

	return Service{
		Settings:     settings,
		Availability: availability,
		Units:        NewUnitRegistryService(store, settings, availability, clock),
		Occupancy:    occupancy,
		Problems:     NewProblemService(store, settings, availability, notifier, clock),
		Tokens:       NewTokenService(store, settings, availability, occupancy, clock),
		Reports:      NewReportService(store, occupancy, notifier, clock, location),
		Scheduler:    NewSchedulerService(location),
		Clock:        clock,
	}
}

// LoadLocation resolves a timezone name, treating an empty name as UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}

	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, logger.New("services").Function("LoadLocation").Err("invalid timezone", err, "timezone", name)
	}
	return location, nil
}
