package services

import (
	"context"
	"testing"
	"time"

	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_DefaultsWhenAbsent(t *testing.T) {
	store := repositories.NewMemoryStore()
	clock := &testClock{now: baseTime}
	svc := NewSettingsService(store, nil, clock.Now)

	settings, err := svc.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)

	_, err = store.GetSettings(context.Background())
	assert.ErrorIs(t, err, repositories.ErrRecordNotFound)
}

func TestSettings_EnsureDefaultsPersistsOnce(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	clock := &testClock{now: baseTime}
	svc := NewSettingsService(store, nil, clock.Now)

	require.NoError(t, svc.EnsureDefaults(ctx))

	custom := models.DefaultSettings()
	custom.TokenExpiresInHours = 6
	_, err := svc.Update(ctx, custom, "admin")
	require.NoError(t, err)

	require.NoError(t, svc.EnsureDefaults(ctx))

	settings, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, settings.TokenExpiresInHours)
	require.NotNil(t, settings.UpdatedBy)
	assert.Equal(t, "admin", *settings.UpdatedBy)
}

func TestSettings_UpdateRejectsInvalid(t *testing.T) {
	svc := NewSettingsService(repositories.NewMemoryStore(), nil, (&testClock{now: baseTime}).Now)

	invalid := models.DefaultSettings()
	invalid.MiddleSectionStart = 3

	_, err := svc.Update(context.Background(), invalid, "admin")

	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, models.ErrInvalidSettings)
}

func TestSettings_TokenExpiryDefaultFollowsSettings(t *testing.T) {
	f := newFixture(t, 2)

	settings := models.DefaultSettings()
	settings.TokenExpiresInHours = 3
	_, err := f.svc.Settings.Update(f.ctx, settings, "admin")
	require.NoError(t, err)

	token, err := f.svc.Tokens.Create(f.ctx, CreateTokenRequest{UnitNumber: "C1"})
	require.NoError(t, err)

	assert.Equal(t, baseTime.Add(3*time.Hour), token.ExpiresAt)
}

func TestSettings_MaintenanceUnitsRankLast(t *testing.T) {
	f := newFixture(t, 6)

	settings := models.DefaultSettings()
	settings.MaintenanceUnits = datatypesStrings("C2", "C4")
	_, err := f.svc.Settings.Update(f.ctx, settings, "admin")
	require.NoError(t, err)

	units, err := f.svc.Units.AvailableForCheckIn(f.ctx, "")
	require.NoError(t, err)

	var numbers []string
	for _, u := range units {
		numbers = append(numbers, u.Number)
	}
	assert.Equal(t, []string{"C6", "C1", "C3", "C5", "C2", "C4"}, numbers)
}
