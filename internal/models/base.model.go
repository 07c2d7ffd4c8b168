package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseUUIDModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime"       json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"       json:"updatedAt"`
}

// EnsureID assigns a fresh id when none is set. Both storage backends call it
// so records carry their identity before they are persisted.
func (b *BaseUUIDModel) EnsureID() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
}

func (b *BaseUUIDModel) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}
