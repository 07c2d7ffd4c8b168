package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GuestToken struct {
	BaseUUIDModel
	Token                string                           `gorm:"type:text;not null;uniqueIndex"         json:"token"`
	UnitNumber           *string                          `gorm:"type:text"                              json:"unitNumber,omitempty"`
	AutoAssign           bool                             `gorm:"not null"                               json:"autoAssign"`
	Prefill              datatypes.JSONType[GuestDetails] `gorm:"type:jsonb"                             json:"prefill"`
	ExpectedCheckoutDate *time.Time                       `                                              json:"expectedCheckoutDate,omitempty"`
	ExpiresAt            time.Time                        `gorm:"not null;index:idx_guest_tokens_expiry" json:"expiresAt"`
	IsUsed               bool                             `gorm:"not null"                               json:"isUsed"`
	UsedAt               *time.Time                       `                                              json:"usedAt,omitempty"`
	StayID               *uuid.UUID                       `gorm:"type:uuid"                              json:"stayId,omitempty"`
	CreatedBy            string                           `gorm:"type:text;not null"                     json:"createdBy"`
}

// IsExpired treats the expiry instant itself as expired.
func (t *GuestToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *GuestToken) IsRedeemable(now time.Time) bool {
	return !t.IsUsed && !t.IsExpired(now)
}

func (t *GuestToken) MarkUsed(stayID uuid.UUID, at time.Time) {
	t.IsUsed = true
	t.UsedAt = &at
	t.StayID = &stayID
}

func NewTokenString() string {
	return uuid.NewString()
}
