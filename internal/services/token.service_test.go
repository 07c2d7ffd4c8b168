package services

import (
	"testing"
	"time"

	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCreate_AutoAssign(t *testing.T) {
	f := newFixture(t, 26)

	token, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{AutoAssign: true, Actor: "desk"})

	require.NoError(t, err)
	require.NotNil(t, token.UnitNumber)
	assert.Equal(t, "C2", *token.UnitNumber)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, baseTime.Add(24*time.Hour), token.ExpiresAt)
	assert.True(t, f.unit(t, "C2").IsAvailable, "creating a token does not reserve the unit")
}

func TestTokenCreate_Validation(t *testing.T) {
	f := newFixture(t, 6)
	f.checkIn(t, "C2", "Occupant")

	tests := []struct {
		name    string
		req     CreateTokenRequest
		wantErr error
	}{
		{name: "neither unit nor auto", req: CreateTokenRequest{}, wantErr: ErrValidation},
		{name: "both unit and auto", req: CreateTokenRequest{UnitNumber: "C1", AutoAssign: true}, wantErr: ErrValidation},
		{name: "negative expiry", req: CreateTokenRequest{UnitNumber: "C1", ExpiresInHours: -1}, wantErr: ErrValidation},
		{name: "unknown unit", req: CreateTokenRequest{UnitNumber: "C77"}, wantErr: ErrNotFound},
		{name: "occupied unit", req: CreateTokenRequest{UnitNumber: "C2"}, wantErr: ErrUnitUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Tokens.Create(f.ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenRedeem_MergesPrefillAndConsumesToken(t *testing.T) {
	f := newFixture(t, 26)

	token, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{
		UnitNumber:     "C4",
		ExpiresInHours: 2,
		Prefill:        models.GuestDetails{GuestName: "Prefilled Name", Nationality: "MY"},
		Actor:          "desk",
	})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	stay, err := f.svc.Tokens.Redeem(f.ctx, token.Token, models.GuestDetails{PhoneNumber: "+60123"})

	require.NoError(t, err)
	assert.Equal(t, "C4", stay.UnitNumber)
	assert.Equal(t, "Prefilled Name", stay.GuestName)
	assert.Equal(t, "MY", stay.Nationality)
	assert.Equal(t, "+60123", stay.PhoneNumber)
	assert.False(t, f.unit(t, "C4").IsAvailable)

	stored, err := f.svc.Tokens.Get(f.ctx, token.Token)
	require.NoError(t, err)
	assert.True(t, stored.IsUsed)
	require.NotNil(t, stored.StayID)
	assert.Equal(t, stay.ID, *stored.StayID)
}

func TestTokenRedeem_SecondRedemptionFailsWithoutChange(t *testing.T) {
	f := newFixture(t, 26)
	token, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{AutoAssign: true})
	require.NoError(t, err)

	_, err = f.svc.Tokens.Redeem(f.ctx, token.Token, models.GuestDetails{GuestName: "First"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = f.svc.Tokens.Redeem(f.ctx, token.Token, models.GuestDetails{GuestName: "Replay"})
		assert.ErrorIs(t, err, ErrTokenAlreadyUsed)
	}

	active, err := f.svc.Occupancy.ListActive(f.ctx, repositories.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, active.Data, 1)
	assert.Equal(t, "First", active.Data[0].GuestName)
}

func TestTokenRedeem_AssignedUnitTakenBeforeRedemption(t *testing.T) {
	f := newFixture(t, 26)
	f.checkIn(t, "C2", "Earlier guest")

	token, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{AutoAssign: true})
	require.NoError(t, err)
	require.Equal(t, "C4", *token.UnitNumber)

	f.checkIn(t, "C4", "Walk-in")

	_, err = f.svc.Tokens.Redeem(f.ctx, token.Token, models.GuestDetails{GuestName: "Token holder"})

	assert.ErrorIs(t, err, ErrAssignedUnitNoLongerAvailable)
	stored, err := f.svc.Tokens.Get(f.ctx, token.Token)
	require.NoError(t, err)
	assert.False(t, stored.IsUsed)
	assert.Equal(t, 1, f.activeStayCount(t, "C4"))
}

func TestTokenRedeem_ExpiryBoundary(t *testing.T) {
	f := newFixture(t, 6)
	token, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{UnitNumber: "C1", ExpiresInHours: 1})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	_, err = f.svc.Tokens.Redeem(f.ctx, token.Token, models.GuestDetails{GuestName: "Too late"})
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.True(t, f.unit(t, "C1").IsAvailable)
}

func TestTokenRedeem_UnknownToken(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.svc.Tokens.Redeem(f.ctx, "missing", models.GuestDetails{GuestName: "Nobody"})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenSweepExpired(t *testing.T) {
	f := newFixture(t, 6)

	short, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{UnitNumber: "C1", ExpiresInHours: 1})
	require.NoError(t, err)
	long, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{UnitNumber: "C2", ExpiresInHours: 48})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	count, err := f.svc.Tokens.SweepExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = f.svc.Tokens.Get(f.ctx, short.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Tokens.Get(f.ctx, long.Token)
	assert.NoError(t, err)

	active, err := f.svc.Tokens.ListActive(f.ctx, repositories.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, active.Data, 1)
	assert.Equal(t, long.Token, active.Data[0].Token)
}

func TestTokenCancel(t *testing.T) {
	f := newFixture(t, 6)

	unused, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{UnitNumber: "C1"})
	require.NoError(t, err)
	used, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{UnitNumber: "C2"})
	require.NoError(t, err)
	_, err = f.svc.Tokens.Redeem(f.ctx, used.Token, models.GuestDetails{GuestName: "Guest"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Tokens.Cancel(f.ctx, unused.Token))
	_, err = f.svc.Tokens.Get(f.ctx, unused.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.Tokens.Cancel(f.ctx, used.Token), ErrTokenAlreadyUsed)
	assert.ErrorIs(t, f.svc.Tokens.Cancel(f.ctx, "missing"), ErrNotFound)
}
