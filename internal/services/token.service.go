package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bunkhouse/internal/allocator"
	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/pkg/logger"

	"gorm.io/datatypes"
)

type CreateTokenRequest struct {
	UnitNumber string
	AutoAssign bool
	// ExpiresInHours falls back to the settings default when zero.
	ExpiresInHours       int
	Prefill              models.GuestDetails
	ExpectedCheckoutDate *time.Time
	Actor                string
}

// TokenService issues single-use self check-in links.
type TokenService struct {
	store        repositories.Store
	settings     *SettingsService
	availability *AvailabilityService
	occupancy    *OccupancyService
	now          Clock
	log          logger.Logger
}

func NewTokenService(
	store repositories.Store,
	settings *SettingsService,
	availability *AvailabilityService,
	occupancy *OccupancyService,
	clock Clock,
) *TokenService {
	return &TokenService{
		store:        store,
		settings:     settings,
		availability: availability,
		occupancy:    occupancy,
		now:          clock,
		log:          logger.New("tokenService"),
	}
}

// Create issues a token. An auto-assigned unit is advisory and is checked
// again on redemption.
func (s *TokenService) Create(ctx context.Context, req CreateTokenRequest) (*models.GuestToken, error) {
	log := s.log.Function("Create").TraceFromContext(ctx)

	if req.AutoAssign == (req.UnitNumber != "") {
		return nil, fmt.Errorf("%w: exactly one of unitNumber or autoAssign is required", ErrValidation)
	}
	if req.ExpiresInHours < 0 {
		return nil, fmt.Errorf("%w: expiresInHours must not be negative", ErrValidation)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	hours := req.ExpiresInHours
	if hours == 0 {
		hours = settings.TokenExpiresInHours
	}

	snapshot, err := s.availability.Snapshot(ctx, settings)
	if err != nil {
		return nil, err
	}

	var unit models.Unit
	if req.AutoAssign {
		unit, err = allocator.Assign(snapshot, s.availability.Options(settings, req.Prefill.Gender))
	} else {
		if _, getErr := s.store.GetUnit(ctx, req.UnitNumber); getErr != nil {
			return nil, notFound(getErr, "unit", req.UnitNumber)
		}
		unit, err = allocator.Validate(snapshot, req.UnitNumber)
	}
	if err != nil {
		allocationFailuresTotal.WithLabelValues(allocationFailureReason(err)).Inc()
		return nil, err
	}

	now := s.now()
	number := unit.Number
	token := &models.GuestToken{
		Token:                models.NewTokenString(),
		UnitNumber:           &number,
		AutoAssign:           req.AutoAssign,
		Prefill:              datatypes.NewJSONType(req.Prefill),
		ExpectedCheckoutDate: req.ExpectedCheckoutDate,
		ExpiresAt:            now.Add(time.Duration(hours) * time.Hour),
		CreatedBy:            req.Actor,
	}
	if err := s.store.CreateToken(ctx, token); err != nil {
		return nil, log.Err("failed to create token", err)
	}

	tokensTotal.WithLabelValues("created").Inc()
	log.Info("Guest token created", "unitNumber", number, "autoAssign", req.AutoAssign, "expiresAt", token.ExpiresAt)
	return token, nil
}

func (s *TokenService) Get(ctx context.Context, token string) (*models.GuestToken, error) {
	t, err := s.store.GetToken(ctx, token)
	if err != nil {
		return nil, notFound(err, "token", token)
	}
	return t, nil
}

// Redeem checks the guest in and consumes the token in one transaction.
func (s *TokenService) Redeem(ctx context.Context, token string, guest models.GuestDetails) (*models.Stay, error) {
	log := s.log.Function("Redeem").TraceFromContext(ctx)

	var stay *models.Stay
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		t, err := s.store.GetToken(ctx, token)
		if err != nil {
			return notFound(err, "token", token)
		}

		now := s.now()
		if t.IsUsed {
			return ErrTokenAlreadyUsed
		}
		if t.IsExpired(now) {
			return ErrTokenExpired
		}

		req := CheckInRequest{
			Guest:                guest.MergeOver(t.Prefill.Data()),
			ExpectedCheckoutDate: t.ExpectedCheckoutDate,
			Actor:                t.CreatedBy,
		}
		if t.UnitNumber != nil {
			req.UnitNumber = *t.UnitNumber
		}

		stay, err = s.occupancy.checkIn(ctx, req)
		if errors.Is(err, ErrUnitUnavailable) || errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrAssignedUnitNoLongerAvailable, req.UnitNumber)
		}
		if err != nil {
			return err
		}

		used, err := s.store.MarkTokenUsed(ctx, t.ID, stay.ID, now)
		if err != nil {
			return log.Err("failed to mark token used", err)
		}
		if !used {
			return ErrTokenAlreadyUsed
		}
		return nil
	})
	if err != nil {
		if reason := allocationFailureReason(err); reason != "" {
			allocationFailuresTotal.WithLabelValues(reason).Inc()
		}
		return nil, err
	}

	tokensTotal.WithLabelValues("redeemed").Inc()
	checkInsTotal.WithLabelValues(sourceToken).Inc()
	log.Info("Guest token redeemed", "unitNumber", stay.UnitNumber, "stayID", stay.ID)
	s.occupancy.notifyCheckIn(ctx, stay)
	return stay, nil
}

func (s *TokenService) ListActive(ctx context.Context, page repositories.Pagination) (repositories.Page[models.GuestToken], error) {
	return s.store.ListActiveTokens(ctx, s.now(), page)
}

// Cancel deletes a token that has not been redeemed.
func (s *TokenService) Cancel(ctx context.Context, token string) error {
	log := s.log.Function("Cancel").TraceFromContext(ctx)

	return s.store.Atomic(ctx, func(ctx context.Context) error {
		t, err := s.store.GetToken(ctx, token)
		if err != nil {
			return notFound(err, "token", token)
		}
		if t.IsUsed {
			return ErrTokenAlreadyUsed
		}

		if _, err := s.store.DeleteToken(ctx, token); err != nil {
			return log.Err("failed to delete token", err)
		}

		tokensTotal.WithLabelValues("cancelled").Inc()
		log.Info("Guest token cancelled", "createdBy", t.CreatedBy)
		return nil
	})
}

// SweepExpired deletes every token whose expiry has passed.
func (s *TokenService) SweepExpired(ctx context.Context) (int64, error) {
	log := s.log.Function("SweepExpired").TraceFromContext(ctx)

	count, err := s.store.DeleteExpiredTokens(ctx, s.now())
	if err != nil {
		return 0, log.Err("failed to sweep expired tokens", err)
	}

	if count > 0 {
		tokensTotal.WithLabelValues("expired").Add(float64(count))
	}
	log.Info("Expired tokens swept", "count", count)
	return count, nil
}
