package models

import (
	"strings"
	"time"
)

// GuestDetails are opaque to allocation and only recorded on the stay.
type GuestDetails struct {
	GuestName   string `gorm:"type:text;not null" json:"guestName"             validate:"required,min=1,max=120"`
	PhoneNumber string `gorm:"type:text"          json:"phoneNumber,omitempty" validate:"omitempty,max=32"`
	Email       string `gorm:"type:text"          json:"email,omitempty"       validate:"omitempty,email"`
	Nationality string `gorm:"type:text"          json:"nationality,omitempty" validate:"omitempty,max=64"`
	Gender      string `gorm:"type:text"          json:"gender,omitempty"      validate:"omitempty,oneof=male female other"`
	IDNumber    string `gorm:"type:text"          json:"idNumber,omitempty"    validate:"omitempty,max=64"`
}

// MergeOver fills empty fields of d from base, so values supplied at
// redemption win over values prefilled on a token.
func (d GuestDetails) MergeOver(base GuestDetails) GuestDetails {
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) != "" {
			return v
		}
		return fallback
	}

	return GuestDetails{
		GuestName:   pick(d.GuestName, base.GuestName),
		PhoneNumber: pick(d.PhoneNumber, base.PhoneNumber),
		Email:       pick(d.Email, base.Email),
		Nationality: pick(d.Nationality, base.Nationality),
		Gender:      pick(d.Gender, base.Gender),
		IDNumber:    pick(d.IDNumber, base.IDNumber),
	}
}

type Stay struct {
	BaseUUIDModel
	GuestDetails         `gorm:"embedded"`
	UnitNumber           string     `gorm:"type:text;not null;index:idx_stays_unit;uniqueIndex:idx_stays_active_unit,where:is_checked_in = true" json:"unitNumber"`
	CheckinTime          time.Time  `gorm:"not null"                                       json:"checkinTime"`
	ExpectedCheckoutDate *time.Time `gorm:"index:idx_stays_expected_checkout"              json:"expectedCheckoutDate,omitempty"`
	CheckoutTime         *time.Time `gorm:"index:idx_stays_checkout"                       json:"checkoutTime,omitempty"`
	IsCheckedIn          bool       `gorm:"not null;index:idx_stays_unit" json:"isCheckedIn"`
	CheckedInBy          string     `gorm:"type:text"                                      json:"checkedInBy"`
	CheckedOutBy         *string    `gorm:"type:text"                                      json:"checkedOutBy,omitempty"`
	Notes                *string    `gorm:"type:text"                                      json:"notes,omitempty"`
}

func (s *Stay) IsActive() bool {
	return s.IsCheckedIn && s.CheckoutTime == nil
}

func (s *Stay) MarkCheckedOut(by string, at time.Time) {
	s.CheckoutTime = &at
	s.CheckedOutBy = &by
	s.IsCheckedIn = false
}

func (s *Stay) Reopen() {
	s.CheckoutTime = nil
	s.CheckedOutBy = nil
	s.IsCheckedIn = true
}

// IsOverdue reports whether an active stay passed its expected checkout day.
// now is read as a wall-clock date in its own location.
func (s *Stay) IsOverdue(now time.Time) bool {
	if !s.IsActive() || s.ExpectedCheckoutDate == nil {
		return false
	}
	return s.ExpectedCheckoutDate.Before(CalendarDate(now))
}

// CalendarDate returns t's wall-clock date as UTC midnight, the form expected
// checkout dates are stored in.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
