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

// Trigger names the mutation that requires a unit's availability flag to be
// recomputed.
type Trigger string

const (
	TriggerCheckOut        Trigger = "checkout"
	TriggerUndoCheckout    Trigger = "undo-checkout"
	TriggerProblemReported Trigger = "problem-reported"
	TriggerProblemCleared  Trigger = "problem-cleared"
)

// AvailabilityService owns the unit availability flag after every ledger or
// tracker mutation, and builds allocator snapshots.
type AvailabilityService struct {
	store    repositories.Store
	settings *SettingsService
	log      logger.Logger
}

func NewAvailabilityService(store repositories.Store, settings *SettingsService) *AvailabilityService {
	return &AvailabilityService{
		store:    store,
		settings: settings,
		log:      logger.New("availabilityService"),
	}
}

// Recompute derives and writes the availability flag of one unit. Check-in
// claims units through ClaimUnit instead.
func (s *AvailabilityService) Recompute(ctx context.Context, number string, trigger Trigger) (bool, error) {
	log := s.log.Function("Recompute").Unit(number).TraceFromContext(ctx)

	var available bool
	switch trigger {
	case TriggerProblemReported, TriggerUndoCheckout:
		available = false
	case TriggerCheckOut:
		open, err := s.store.CountOpenProblems(ctx, number)
		if err != nil {
			return false, log.Err("failed to count open problems", err)
		}
		available = open == 0
	case TriggerProblemCleared:
		open, err := s.store.CountOpenProblems(ctx, number)
		if err != nil {
			return false, log.Err("failed to count open problems", err)
		}
		if open > 0 {
			return false, nil
		}
		available = true

		// Clearing the last problem frees the unit even when a guest is still
		// in it.
		stay, err := s.store.ActiveStayForUnit(ctx, number)
		switch {
		case err == nil:
			log.Warn("Unit marked available while a stay is active", "stayID", stay.ID)
		case !errors.Is(err, repositories.ErrRecordNotFound):
			return false, log.Err("failed to load active stay", err)
		}
	default:
		return false, log.Error("unknown availability trigger", "trigger", trigger)
	}

	if err := s.store.SetUnitAvailability(ctx, number, available); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: unit %s", ErrNotFound, number)
		}
		return false, log.Err("failed to set unit availability", err, "available", available)
	}

	log.Debug("Availability recomputed", "trigger", trigger, "available", available)
	return available, nil
}

// Snapshot reads the state the allocator needs. Inside an Atomic block the
// read is consistent with the surrounding writes.
func (s *AvailabilityService) Snapshot(ctx context.Context, settings models.Settings) (allocator.Snapshot, error) {
	log := s.log.Function("Snapshot").TraceFromContext(ctx)

	units, err := s.store.ListUnits(ctx)
	if err != nil {
		return allocator.Snapshot{}, log.Err("failed to list units", err)
	}

	active, err := s.store.ActiveStayUnits(ctx)
	if err != nil {
		return allocator.Snapshot{}, log.Err("failed to list active stay units", err)
	}

	problemUnits, err := s.store.OpenProblemUnits(ctx)
	if err != nil {
		return allocator.Snapshot{}, log.Err("failed to list units with open problems", err)
	}

	deprioritized := append(problemUnits, settings.MaintenanceUnits.Data()...)

	return allocator.Snapshot{
		Units:           units,
		ActiveStayUnits: active,
		Deprioritized:   deprioritized,
		Excluded:        settings.ExcludedUnits.Data(),
	}, nil
}

func (s *AvailabilityService) Options(settings models.Settings, gender string) allocator.Options {
	return allocator.Options{
		Ranges:       allocator.RangesFromSettings(settings),
		SectionOrder: settings.SectionOrderFor(gender),
	}
}

// Candidates lists the units a new guest of the given gender could take, best
// first.
func (s *AvailabilityService) Candidates(ctx context.Context, gender string) ([]models.Unit, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.Snapshot(ctx, settings)
	if err != nil {
		return nil, err
	}

	return allocator.Candidates(snapshot, s.Options(settings, gender)), nil
}
