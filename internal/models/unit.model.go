package models

import (
	"strconv"
	"strings"
	"time"
)

type UnitSection string

const (
	SectionBack   UnitSection = "back"
	SectionMiddle UnitSection = "middle"
	SectionFront  UnitSection = "front"
)

var AllSections = []UnitSection{SectionBack, SectionMiddle, SectionFront}

func (s UnitSection) IsValid() bool {
	switch s {
	case SectionBack, SectionMiddle, SectionFront:
		return true
	}
	return false
}

type UnitPosition string

const (
	PositionTop    UnitPosition = "top"
	PositionBottom UnitPosition = "bottom"
)

type CleaningStatus string

const (
	CleaningStatusCleaned     CleaningStatus = "cleaned"
	CleaningStatusToBeCleaned CleaningStatus = "to_be_cleaned"
)

func (c CleaningStatus) IsValid() bool {
	return c == CleaningStatusCleaned || c == CleaningStatusToBeCleaned
}

type Unit struct {
	Number         string         `gorm:"type:text;primaryKey"     json:"number"`
	Section        UnitSection    `gorm:"type:text;not null"       json:"section"`
	Position       UnitPosition   `gorm:"type:text;not null"       json:"position"`
	IsAvailable    bool           `gorm:"not null;index"           json:"isAvailable"`
	CleaningStatus CleaningStatus `gorm:"type:text;not null;index" json:"cleaningStatus"`
	ToRent         bool           `gorm:"not null"                 json:"toRent"`
	LastCleanedAt  *time.Time     `                                json:"lastCleanedAt,omitempty"`
	LastCleanedBy  *string        `gorm:"type:text"                json:"lastCleanedBy,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"           json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"           json:"updatedAt"`
}

// Suffix returns the numeric part trailing the unit code, e.g. 14 for "C14".
func (u Unit) Suffix() (int, bool) {
	return ParseSuffix(u.Number)
}

func (u Unit) IsClean() bool {
	return u.CleaningStatus == CleaningStatusCleaned
}

func (u *Unit) MarkCleaned(by string, at time.Time) {
	u.CleaningStatus = CleaningStatusCleaned
	u.LastCleanedAt = &at
	u.LastCleanedBy = &by
}

func ParseSuffix(number string) (int, bool) {
	end := len(number)
	start := end
	for start > 0 && number[start-1] >= '0' && number[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}

	n, err := strconv.Atoi(number[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// PositionFor maps a unit suffix to its bunk: even numbers are bottom bunks.
func PositionFor(n int) UnitPosition {
	if n%2 == 0 {
		return PositionBottom
	}
	return PositionTop
}

func UnitNumber(prefix string, n int) string {
	return strings.TrimSpace(prefix) + strconv.Itoa(n)
}
