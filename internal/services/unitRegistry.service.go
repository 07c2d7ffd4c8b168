package services

import (
	"context"
	"errors"
	"fmt"

	"bunkhouse/internal/allocator"
	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/pkg/logger"
)

type UnitRegistryService struct {
	store        repositories.Store
	settings     *SettingsService
	availability *AvailabilityService
	now          Clock
	log          logger.Logger
}

func NewUnitRegistryService(
	store repositories.Store,
	settings *SettingsService,
	availability *AvailabilityService,
	clock Clock,
) *UnitRegistryService {
	return &UnitRegistryService{
		store:        store,
		settings:     settings,
		availability: availability,
		now:          clock,
		log:          logger.New("unitRegistryService"),
	}
}

func notFound(err error, what string, key any) error {
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %v", ErrNotFound, what, key)
	}
	return err
}

func (s *UnitRegistryService) ListAll(ctx context.Context) ([]models.Unit, error) {
	units, err := s.store.ListUnits(ctx)
	if err != nil {
		return nil, s.log.Function("ListAll").TraceFromContext(ctx).Err("failed to list units", err)
	}
	return units, nil
}

func (s *UnitRegistryService) Get(ctx context.Context, number string) (*models.Unit, error) {
	unit, err := s.store.GetUnit(ctx, number)
	if err != nil {
		return nil, notFound(err, "unit", number)
	}
	return unit, nil
}

func (s *UnitRegistryService) ListByCleaningStatus(ctx context.Context, status models.CleaningStatus) ([]models.Unit, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown cleaning status %q", ErrValidation, status)
	}
	return s.store.ListUnitsByCleaningStatus(ctx, status)
}

func (s *UnitRegistryService) SetAvailability(ctx context.Context, number string, available bool) error {
	return notFound(s.store.SetUnitAvailability(ctx, number, available), "unit", number)
}

func (s *UnitRegistryService) SetCleaningStatus(ctx context.Context, number string, status models.CleaningStatus, actor string) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: unknown cleaning status %q", ErrValidation, status)
	}
	return notFound(s.store.SetUnitCleaningStatus(ctx, number, status, actor, s.now()), "unit", number)
}

func (s *UnitRegistryService) SetToRent(ctx context.Context, number string, toRent bool) (*models.Unit, error) {
	log := s.log.Function("SetToRent").Unit(number).TraceFromContext(ctx)

	if err := s.store.SetUnitToRent(ctx, number, toRent); err != nil {
		return nil, notFound(err, "unit", number)
	}

	log.Info("Unit rental flag changed", "toRent", toRent)
	return s.Get(ctx, number)
}

// MarkCleaned records a cleaning and flips the unit to cleaned.
func (s *UnitRegistryService) MarkCleaned(ctx context.Context, number string, cleanedBy string) (*models.Unit, error) {
	var unit *models.Unit
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		var err error
		unit, err = s.markCleaned(ctx, number, cleanedBy, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *UnitRegistryService) markCleaned(ctx context.Context, number string, cleanedBy string, bulk bool) (*models.Unit, error) {
	log := s.log.Function("markCleaned").Unit(number).TraceFromContext(ctx)
	now := s.now()

	if err := s.store.SetUnitCleaningStatus(ctx, number, models.CleaningStatusCleaned, cleanedBy, now); err != nil {
		return nil, notFound(err, "unit", number)
	}

	record := &models.CleaningRecord{
		UnitNumber: number,
		CleanedBy:  cleanedBy,
		CleanedAt:  now,
		Bulk:       bulk,
	}
	if err := s.store.CreateCleaningRecord(ctx, record); err != nil {
		return nil, log.Err("failed to record cleaning", err)
	}

	unit, err := s.store.GetUnit(ctx, number)
	if err != nil {
		return nil, notFound(err, "unit", number)
	}

	log.Info("Unit cleaned", "cleanedBy", cleanedBy)
	return unit, nil
}

// MarkAllCleaned cleans every unit waiting for cleaning and returns how many
// changed.
func (s *UnitRegistryService) MarkAllCleaned(ctx context.Context, cleanedBy string) (int, error) {
	log := s.log.Function("MarkAllCleaned").TraceFromContext(ctx)

	var count int
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		dirty, err := s.store.ListUnitsByCleaningStatus(ctx, models.CleaningStatusToBeCleaned)
		if err != nil {
			return log.Err("failed to list units to be cleaned", err)
		}

		for _, unit := range dirty {
			if _, err := s.markCleaned(ctx, unit.Number, cleanedBy, true); err != nil {
				return err
			}
		}
		count = len(dirty)
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info("Bulk cleaning recorded", "count", count, "cleanedBy", cleanedBy)
	return count, nil
}

func (s *UnitRegistryService) MarkNeedsCleaning(ctx context.Context, number string) (*models.Unit, error) {
	if err := s.SetCleaningStatus(ctx, number, models.CleaningStatusToBeCleaned, ""); err != nil {
		return nil, err
	}
	return s.Get(ctx, number)
}

func (s *UnitRegistryService) CleaningHistory(
	ctx context.Context,
	number string,
	page repositories.Pagination,
) (repositories.Page[models.CleaningRecord], error) {
	if _, err := s.Get(ctx, number); err != nil {
		return repositories.Page[models.CleaningRecord]{}, err
	}
	return s.store.ListCleaningRecords(ctx, number, page)
}

// AvailableForCheckIn lists assignable units in allocation order.
func (s *UnitRegistryService) AvailableForCheckIn(ctx context.Context, gender string) ([]models.Unit, error) {
	return s.availability.Candidates(ctx, gender)
}

// Seed registers units 1..count under the configured prefix. Existing units
// are left untouched, so seeding twice is harmless.
func (s *UnitRegistryService) Seed(ctx context.Context, count int) (int, error) {
	log := s.log.Function("Seed").TraceFromContext(ctx)

	if count < 0 {
		return 0, fmt.Errorf("%w: unit count must not be negative", ErrValidation)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	ranges := allocator.RangesFromSettings(settings)

	created := 0
	err = s.store.Atomic(ctx, func(ctx context.Context) error {
		for n := 1; n <= count; n++ {
			number := models.UnitNumber(settings.UnitPrefix, n)

			_, err := s.store.GetUnit(ctx, number)
			if err == nil {
				continue
			}
			if !errors.Is(err, repositories.ErrRecordNotFound) {
				return log.Err("failed to load unit", err, "unitNumber", number)
			}

			unit := &models.Unit{
				Number:         number,
				Section:        ranges.SectionFor(n),
				Position:       models.PositionFor(n),
				IsAvailable:    true,
				CleaningStatus: models.CleaningStatusCleaned,
				ToRent:         true,
			}
			if err := s.store.CreateUnit(ctx, unit); err != nil {
				return log.Err("failed to create unit", err, "unitNumber", number)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info("Unit registry seeded", "requested", count, "created", created)
	return created, nil
}
