package models

import "time"

// CleaningRecord is one housekeeping pass over a unit.
type CleaningRecord struct {
	BaseUUIDModel
	UnitNumber string    `gorm:"type:text;not null;index:idx_cleaning_records_unit" json:"unitNumber"`
	CleanedBy  string    `gorm:"type:text;not null"                                 json:"cleanedBy"`
	CleanedAt  time.Time `gorm:"not null"                                           json:"cleanedAt"`
	Bulk       bool      `gorm:"not null"                                           json:"bulk"`
}
