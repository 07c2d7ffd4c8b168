package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const SettingsID = 1

var ErrInvalidSettings = errors.New("invalid settings")

type SectionRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r SectionRange) Contains(n int) bool {
	return n >= r.Start && n <= r.End
}

// Settings is the single operator-editable configuration row.
type Settings struct {
	ID                  int                                          `gorm:"primaryKey"                 json:"-"`
	TokenExpiresInHours int                                          `gorm:"not null"                   json:"tokenExpiresInHours"`
	ExcludedUnits       datatypes.JSONType[[]string]                 `gorm:"type:jsonb"                 json:"excludedUnits"`
	MaintenanceUnits    datatypes.JSONType[[]string]                 `gorm:"type:jsonb"                 json:"maintenanceUnits"`
	BackSectionStart    int                                          `gorm:"not null"                   json:"backSectionStart"`
	BackSectionEnd      int                                          `gorm:"not null"                   json:"backSectionEnd"`
	MiddleSectionStart  int                                          `gorm:"not null"                   json:"middleSectionStart"`
	MiddleSectionEnd    int                                          `gorm:"not null"                   json:"middleSectionEnd"`
	SectionPreferences  datatypes.JSONType[map[string][]UnitSection] `gorm:"type:jsonb"                 json:"sectionPreferences"`
	UnitPrefix          string                                       `gorm:"type:text;not null"         json:"unitPrefix"`
	UpdatedBy           *string                                      `gorm:"type:text"                  json:"updatedBy,omitempty"`
	UpdatedAt           time.Time                                    `gorm:"autoUpdateTime"             json:"updatedAt"`
}

func DefaultSettings() Settings {
	return Settings{
		ID:                  SettingsID,
		TokenExpiresInHours: 24,
		ExcludedUnits:       datatypes.NewJSONType([]string{}),
		MaintenanceUnits:    datatypes.NewJSONType([]string{}),
		BackSectionStart:    1,
		BackSectionEnd:      6,
		MiddleSectionStart:  25,
		MiddleSectionEnd:    26,
		SectionPreferences:  datatypes.NewJSONType(map[string][]UnitSection{}),
		UnitPrefix:          "C",
	}
}

func (s Settings) BackSection() SectionRange {
	return SectionRange{Start: s.BackSectionStart, End: s.BackSectionEnd}
}

func (s Settings) MiddleSection() SectionRange {
	return SectionRange{Start: s.MiddleSectionStart, End: s.MiddleSectionEnd}
}

// SectionOrderFor returns the preferred section order for a guest gender, or
// nil when no override is configured.
func (s Settings) SectionOrderFor(gender string) []UnitSection {
	if gender == "" {
		return nil
	}
	prefs := s.SectionPreferences.Data()
	if prefs == nil {
		return nil
	}
	return prefs[gender]
}

func (s Settings) Validate() error {
	if s.TokenExpiresInHours < 1 {
		return fmt.Errorf("%w: tokenExpiresInHours must be at least 1", ErrInvalidSettings)
	}
	if s.BackSectionStart > s.BackSectionEnd {
		return fmt.Errorf("%w: back section range is inverted", ErrInvalidSettings)
	}
	if s.MiddleSectionStart > s.MiddleSectionEnd {
		return fmt.Errorf("%w: middle section range is inverted", ErrInvalidSettings)
	}
	if s.BackSectionEnd >= s.MiddleSectionStart && s.MiddleSectionEnd >= s.BackSectionStart {
		return fmt.Errorf("%w: back and middle sections overlap", ErrInvalidSettings)
	}
	if s.UnitPrefix == "" {
		return fmt.Errorf("%w: unitPrefix is required", ErrInvalidSettings)
	}
	for gender, order := range s.SectionPreferences.Data() {
		for _, section := range order {
			if !section.IsValid() {
				return fmt.Errorf("%w: unknown section %q for %s", ErrInvalidSettings, section, gender)
			}
		}
	}
	return nil
}
