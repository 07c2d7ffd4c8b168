package settingsController

import (
	"context"
	"testing"
	"time"

	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() UpdateSettingsRequest {
	return UpdateSettingsRequest{
		TokenExpiresInHours: 6,
		ExcludedUnits:       []string{"C9"},
		BackSectionStart:    1,
		BackSectionEnd:      4,
		MiddleSectionStart:  20,
		MiddleSectionEnd:    22,
		SectionPreferences: map[string][]models.UnitSection{
			"female": {models.SectionMiddle, models.SectionBack},
		},
		UnitPrefix: "B",
	}
}

func TestUpdate(t *testing.T) {
	svc := services.NewWithClock(
		repositories.NewMemoryStore(),
		nil,
		nil,
		func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) },
		time.UTC,
	)
	controller := New(svc.Settings)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *UpdateSettingsRequest)
	}{
		{name: "zero expiry", mutate: func(r *UpdateSettingsRequest) { r.TokenExpiresInHours = 0 }},
		{name: "missing prefix", mutate: func(r *UpdateSettingsRequest) { r.UnitPrefix = "" }},
		{name: "unknown gender key", mutate: func(r *UpdateSettingsRequest) {
			r.SectionPreferences = map[string][]models.UnitSection{"robot": {models.SectionBack}}
		}},
		{name: "unknown section", mutate: func(r *UpdateSettingsRequest) {
			r.SectionPreferences = map[string][]models.UnitSection{"male": {"attic"}}
		}},
		{name: "overlapping sections", mutate: func(r *UpdateSettingsRequest) { r.MiddleSectionStart = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := validRequest()
			tt.mutate(&request)
			_, err := controller.Update(ctx, "manager", &request)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	request := validRequest()
	request.MaintenanceUnits = nil
	updated, err := controller.Update(ctx, "manager", &request)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.TokenExpiresInHours)
	assert.Equal(t, []string{}, updated.MaintenanceUnits.Data())

	current, err := controller.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", current.UnitPrefix)
	require.NotNil(t, current.UpdatedBy)
	assert.Equal(t, "manager", *current.UpdatedBy)
}
