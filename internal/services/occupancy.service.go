package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bunkhouse/internal/allocator"
	"bunkhouse/internal/events"
	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/pkg/logger"

	"github.com/google/uuid"
)

type CheckInRequest struct {
	// UnitNumber selects a specific unit. Empty asks the allocator.
	UnitNumber           string
	Guest                models.GuestDetails
	ExpectedCheckoutDate *time.Time
	Notes                *string
	Actor                string
}

type OccupancyService struct {
	store        repositories.Store
	settings     *SettingsService
	availability *AvailabilityService
	notifier     events.Notifier
	now          Clock
	location     *time.Location
	log          logger.Logger
}

func NewOccupancyService(
	store repositories.Store,
	settings *SettingsService,
	availability *AvailabilityService,
	notifier events.Notifier,
	clock Clock,
	location *time.Location,
) *OccupancyService {
	if notifier == nil {
		notifier = events.Noop{}
	}
	if location == nil {
		location = time.UTC
	}
	return &OccupancyService{
		store:        store,
		settings:     settings,
		availability: availability,
		notifier:     notifier,
		now:          clock,
		location:     location,
		log:          logger.New("occupancyService"),
	}
}

// CheckIn claims a unit and opens a stay in one atomic step.
func (s *OccupancyService) CheckIn(ctx context.Context, req CheckInRequest) (*models.Stay, error) {
	log := s.log.Function("CheckIn").TraceFromContext(ctx)

	source := sourceManual
	if req.UnitNumber == "" {
		source = sourceAuto
	}

	var stay *models.Stay
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		var err error
		stay, err = s.checkIn(ctx, req)
		return err
	})
	if err != nil {
		if reason := allocationFailureReason(err); reason != "" {
			allocationFailuresTotal.WithLabelValues(reason).Inc()
		}
		return nil, err
	}

	checkInsTotal.WithLabelValues(source).Inc()
	log.Info("Guest checked in", "unitNumber", stay.UnitNumber, "stayID", stay.ID, "actor", req.Actor)
	s.notifyCheckIn(ctx, stay)
	return stay, nil
}

// checkIn must run inside Atomic. The snapshot is read fresh and the claim is
// a compare-and-set, so two concurrent requests cannot both take a unit.
func (s *OccupancyService) checkIn(ctx context.Context, req CheckInRequest) (*models.Stay, error) {
	log := s.log.Function("checkIn").TraceFromContext(ctx)

	if strings.TrimSpace(req.Guest.GuestName) == "" {
		return nil, fmt.Errorf("%w: guest name is required", ErrValidation)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.availability.Snapshot(ctx, settings)
	if err != nil {
		return nil, err
	}

	var unit models.Unit
	if req.UnitNumber == "" {
		unit, err = allocator.Assign(snapshot, s.availability.Options(settings, req.Guest.Gender))
	} else {
		if _, getErr := s.store.GetUnit(ctx, req.UnitNumber); getErr != nil {
			return nil, notFound(getErr, "unit", req.UnitNumber)
		}
		unit, err = allocator.Validate(snapshot, req.UnitNumber)
	}
	if err != nil {
		return nil, err
	}

	claimed, err := s.store.ClaimUnit(ctx, unit.Number)
	if err != nil {
		return nil, log.Err("failed to claim unit", err, "unitNumber", unit.Number)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: %s was taken by another request", ErrUnitUnavailable, unit.Number)
	}

	stay := &models.Stay{
		GuestDetails:         req.Guest,
		UnitNumber:           unit.Number,
		CheckinTime:          s.now(),
		ExpectedCheckoutDate: req.ExpectedCheckoutDate,
		IsCheckedIn:          true,
		CheckedInBy:          req.Actor,
		Notes:                req.Notes,
	}
	if err := s.store.CreateStay(ctx, stay); err != nil {
		return nil, log.Err("failed to create stay", err, "unitNumber", unit.Number)
	}

	return stay, nil
}

func (s *OccupancyService) notifyCheckIn(ctx context.Context, stay *models.Stay) {
	notification := events.Notification{
		Type:       events.GuestCheckin,
		UnitNumber: stay.UnitNumber,
		GuestName:  stay.GuestName,
		Timestamp:  s.now(),
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		s.log.Function("notifyCheckIn").TraceFromContext(ctx).
			Er("failed to dispatch check-in notification", err, "unitNumber", stay.UnitNumber)
	}
}

// CheckOut closes an active stay and leaves the unit bookable but dirty.
func (s *OccupancyService) CheckOut(ctx context.Context, stayID uuid.UUID, actor string) (*models.Stay, error) {
	log := s.log.Function("CheckOut").TraceFromContext(ctx)

	var stay *models.Stay
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		var err error
		stay, err = s.store.GetStay(ctx, stayID)
		if err != nil {
			return notFound(err, "stay", stayID)
		}
		if !stay.IsActive() {
			return fmt.Errorf("%w: no active stay %s", ErrNotFound, stayID)
		}

		now := s.now()
		stay.MarkCheckedOut(actor, now)
		if err := s.store.SaveStay(ctx, stay); err != nil {
			return log.Err("failed to save stay", err, "stayID", stayID)
		}

		if err := s.store.SetUnitCleaningStatus(ctx, stay.UnitNumber, models.CleaningStatusToBeCleaned, actor, now); err != nil {
			return log.Err("failed to flag unit for cleaning", err, "unitNumber", stay.UnitNumber)
		}

		_, err = s.availability.Recompute(ctx, stay.UnitNumber, TriggerCheckOut)
		return err
	})
	if err != nil {
		return nil, err
	}

	checkOutsTotal.Inc()
	log.Info("Guest checked out", "unitNumber", stay.UnitNumber, "stayID", stay.ID, "actor", actor)
	return stay, nil
}

// UndoLastCheckout reopens the most recently closed stay. The unit goes back
// to occupied and cleaned, as the guest never left.
func (s *OccupancyService) UndoLastCheckout(ctx context.Context, actor string) (*models.Stay, error) {
	log := s.log.Function("UndoLastCheckout").TraceFromContext(ctx)

	var stay *models.Stay
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		var err error
		stay, err = s.store.LatestCheckedOutStay(ctx)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrNothingToUndo
		}
		if err != nil {
			return log.Err("failed to load latest checked out stay", err)
		}

		_, err = s.store.ActiveStayForUnit(ctx, stay.UnitNumber)
		if err == nil {
			return fmt.Errorf("%w: %s has been re-let", ErrUnitUnavailable, stay.UnitNumber)
		}
		if !errors.Is(err, repositories.ErrRecordNotFound) {
			return log.Err("failed to check unit occupancy", err, "unitNumber", stay.UnitNumber)
		}

		stay.Reopen()
		if err := s.store.SaveStay(ctx, stay); err != nil {
			return log.Err("failed to reopen stay", err, "stayID", stay.ID)
		}

		if err := s.store.SetUnitCleaningStatus(ctx, stay.UnitNumber, models.CleaningStatusCleaned, actor, s.now()); err != nil {
			return log.Err("failed to restore cleaning status", err, "unitNumber", stay.UnitNumber)
		}

		_, err = s.availability.Recompute(ctx, stay.UnitNumber, TriggerUndoCheckout)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("Checkout undone", "unitNumber", stay.UnitNumber, "stayID", stay.ID, "actor", actor)
	return stay, nil
}

func (s *OccupancyService) Get(ctx context.Context, id uuid.UUID) (*models.Stay, error) {
	stay, err := s.store.GetStay(ctx, id)
	if err != nil {
		return nil, notFound(err, "stay", id)
	}
	return stay, nil
}

func (s *OccupancyService) ListActive(ctx context.Context, page repositories.Pagination) (repositories.Page[models.Stay], error) {
	return s.store.ListActiveStays(ctx, page)
}

func (s *OccupancyService) ListHistory(
	ctx context.Context,
	page repositories.Pagination,
	filter repositories.StayFilter,
) (repositories.Page[models.Stay], error) {
	return s.store.ListStayHistory(ctx, page, filter)
}

// Overdue lists active stays whose expected checkout day is already past in
// the hostel's local time.
func (s *OccupancyService) Overdue(ctx context.Context) ([]models.Stay, error) {
	return s.store.ListOverdueStays(ctx, models.CalendarDate(s.now().In(s.location)))
}
