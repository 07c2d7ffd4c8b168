package settingsController

import (
	"context"

	"bunkhouse/internal/controllers/validate"
	. "bunkhouse/internal/models"
	"bunkhouse/internal/services"

	"gorm.io/datatypes"
)

type SettingsController struct {
	settings *services.SettingsService
}

type UpdateSettingsRequest struct {
	TokenExpiresInHours int                      `json:"tokenExpiresInHours" validate:"required,min=1,max=720"`
	ExcludedUnits       []string                 `json:"excludedUnits"       validate:"dive,required,max=16"`
	MaintenanceUnits    []string                 `json:"maintenanceUnits"    validate:"dive,required,max=16"`
	BackSectionStart    int                      `json:"backSectionStart"    validate:"min=0"`
	BackSectionEnd      int                      `json:"backSectionEnd"      validate:"min=0"`
	MiddleSectionStart  int                      `json:"middleSectionStart"  validate:"min=0"`
	MiddleSectionEnd    int                      `json:"middleSectionEnd"    validate:"min=0"`
	SectionPreferences  map[string][]UnitSection `json:"sectionPreferences"  validate:"dive,keys,oneof=male female other,endkeys,dive,oneof=back middle front"`
	UnitPrefix          string                   `json:"unitPrefix"          validate:"required,max=8"`
}

type SettingsControllerInterface interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, actor string, request *UpdateSettingsRequest) (Settings, error)
}

func New(settings *services.SettingsService) SettingsControllerInterface {
	return &SettingsController{settings: settings}
}

func (c *SettingsController) Get(ctx context.Context) (Settings, error) {
	return c.settings.Get(ctx)
}

// Update replaces every operator-editable field. Cross-field rules such as
// overlapping sections are checked by the settings service.
func (c *SettingsController) Update(
	ctx context.Context,
	actor string,
	request *UpdateSettingsRequest,
) (Settings, error) {
	if err := validate.Struct(request); err != nil {
		return Settings{}, err
	}

	return c.settings.Update(ctx, Settings{
		ID:                  SettingsID,
		TokenExpiresInHours: request.TokenExpiresInHours,
		ExcludedUnits:       datatypes.NewJSONType(orEmpty(request.ExcludedUnits)),
		MaintenanceUnits:    datatypes.NewJSONType(orEmpty(request.MaintenanceUnits)),
		BackSectionStart:    request.BackSectionStart,
		BackSectionEnd:      request.BackSectionEnd,
		MiddleSectionStart:  request.MiddleSectionStart,
		MiddleSectionEnd:    request.MiddleSectionEnd,
		SectionPreferences:  datatypes.NewJSONType(orEmptyPreferences(request.SectionPreferences)),
		UnitPrefix:          request.UnitPrefix,
	}, actor)
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func orEmptyPreferences(prefs map[string][]UnitSection) map[string][]UnitSection {
	if prefs == nil {
		return map[string][]UnitSection{}
	}
	return prefs
}
