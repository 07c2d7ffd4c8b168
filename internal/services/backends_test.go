package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingTokenStore loses the isUsed flip while failing is set.
type failingTokenStore struct {
	repositories.Store
	mu      sync.Mutex
	failing bool
}

func (s *failingTokenStore) setFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

func (s *failingTokenStore) MarkTokenUsed(ctx context.Context, id, stayID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	failing := s.failing
	s.mu.Unlock()

	if failing {
		return false, repositories.ErrStorage
	}
	return s.Store.MarkTokenUsed(ctx, id, stayID, at)
}

// contendedClaimStore lets a competing writer take the unit between the
// snapshot read and the claim.
type contendedClaimStore struct {
	repositories.Store
}

func (s contendedClaimStore) ClaimUnit(ctx context.Context, number string) (bool, error) {
	if err := s.Store.SetUnitAvailability(ctx, number, false); err != nil {
		return false, err
	}
	return s.Store.ClaimUnit(ctx, number)
}

func TestBackends_RedeemRollsBackWhenTokenFlipFails(t *testing.T) {
	var wrapped *failingTokenStore
	wrap := func(store repositories.Store) repositories.Store {
		wrapped = &failingTokenStore{Store: store}
		return wrapped
	}

	forEachBackend(t, 6, wrap, func(t *testing.T, f fixture) {
		token, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{UnitNumber: "C4", Actor: "desk"})
		require.NoError(t, err)

		wrapped.setFailing(true)
		_, err = f.svc.Tokens.Redeem(f.ctx, token.Token, models.GuestDetails{GuestName: "Mei"})
		require.ErrorIs(t, err, repositories.ErrStorage)

		assert.Zero(t, f.activeStayCount(t, "C4"))
		assert.True(t, f.unit(t, "C4").IsAvailable)
		stored, err := f.svc.Tokens.Get(f.ctx, token.Token)
		require.NoError(t, err)
		assert.False(t, stored.IsUsed)

		wrapped.setFailing(false)
		stay, err := f.svc.Tokens.Redeem(f.ctx, token.Token, models.GuestDetails{GuestName: "Mei"})
		require.NoError(t, err)
		assert.Equal(t, "C4", stay.UnitNumber)
		assert.Equal(t, 1, f.activeStayCount(t, "C4"))
	})
}

func TestBackends_ClaimLostToCompetingWriter(t *testing.T) {
	wrap := func(store repositories.Store) repositories.Store {
		return contendedClaimStore{Store: store}
	}

	forEachBackend(t, 6, wrap, func(t *testing.T, f fixture) {
		_, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{
			UnitNumber: "C2",
			Guest:      models.GuestDetails{GuestName: "Late"},
		})

		assert.ErrorIs(t, err, ErrUnitUnavailable)
		assert.Zero(t, f.activeStayCount(t, "C2"))
	})
}

func TestBackends_ConcurrentCheckInsForSameUnit(t *testing.T) {
	forEachBackend(t, 6, nil, func(t *testing.T, f fixture) {
		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Occupancy.CheckIn(f.ctx, CheckInRequest{
					UnitNumber: "C4",
					Guest:      models.GuestDetails{GuestName: "Racer"},
				})
				if err != nil {
					assert.ErrorIs(t, err, ErrUnitUnavailable)
					return
				}
				mu.Lock()
				successes++
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, f.activeStayCount(t, "C4"))
	})
}

func TestBackends_AssignedUnitTakenBeforeRedemption(t *testing.T) {
	forEachBackend(t, 6, nil, func(t *testing.T, f fixture) {
		token, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{AutoAssign: true, Actor: "desk"})
		require.NoError(t, err)
		require.NotNil(t, token.UnitNumber)
		assigned := *token.UnitNumber

		f.checkIn(t, assigned, "Walk-in")

		_, err = f.svc.Tokens.Redeem(f.ctx, token.Token, models.GuestDetails{GuestName: "Booked"})
		assert.ErrorIs(t, err, ErrAssignedUnitNoLongerAvailable)

		stored, err := f.svc.Tokens.Get(f.ctx, token.Token)
		require.NoError(t, err)
		assert.False(t, stored.IsUsed)
		assert.Equal(t, 1, f.activeStayCount(t, assigned))
	})
}

func TestBackends_ProblemAvailability(t *testing.T) {
	forEachBackend(t, 6, nil, func(t *testing.T, f fixture) {
		first, err := f.svc.Problems.Report(f.ctx, "C5", "Broken ladder", "housekeeping")
		require.NoError(t, err)
		assert.False(t, f.unit(t, "C5").IsAvailable)

		second, err := f.svc.Problems.Report(f.ctx, "C5", "Curtain torn", "housekeeping")
		require.NoError(t, err)
		assert.False(t, f.unit(t, "C5").IsAvailable)

		_, err = f.svc.Problems.Resolve(f.ctx, first.ID, "maintenance", nil)
		require.NoError(t, err)
		assert.False(t, f.unit(t, "C5").IsAvailable)

		_, err = f.svc.Problems.Resolve(f.ctx, second.ID, "maintenance", nil)
		require.NoError(t, err)
		assert.True(t, f.unit(t, "C5").IsAvailable)
	})
}

func TestBackends_CheckoutUndoRoundTrip(t *testing.T) {
	forEachBackend(t, 6, nil, func(t *testing.T, f fixture) {
		stay := f.checkIn(t, "C3", "Returning")
		before := f.unit(t, "C3")

		f.clock.Advance(time.Hour)
		_, err := f.svc.Occupancy.CheckOut(f.ctx, stay.ID, "desk")
		require.NoError(t, err)
		assert.Equal(t, models.CleaningStatusToBeCleaned, f.unit(t, "C3").CleaningStatus)

		reopened, err := f.svc.Occupancy.UndoLastCheckout(f.ctx, "desk")
		require.NoError(t, err)
		assert.Equal(t, stay.ID, reopened.ID)

		after := f.unit(t, "C3")
		assert.Equal(t, before.IsAvailable, after.IsAvailable)
		assert.Equal(t, before.CleaningStatus, after.CleaningStatus)
		assert.Equal(t, 1, f.activeStayCount(t, "C3"))

		_, err = f.svc.Occupancy.UndoLastCheckout(f.ctx, "desk")
		assert.ErrorIs(t, err, ErrNothingToUndo)
	})
}
