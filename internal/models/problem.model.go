package models

import "time"

type Problem struct {
	BaseUUIDModel
	UnitNumber  string     `gorm:"type:text;not null;index:idx_problems_unit" json:"unitNumber"`
	Description string     `gorm:"type:text;not null"                         json:"description"`
	ReportedBy  string     `gorm:"type:text;not null"                         json:"reportedBy"`
	ReportedAt  time.Time  `gorm:"not null;index:idx_problems_reported_at"    json:"reportedAt"`
	IsResolved  bool       `gorm:"not null;index:idx_problems_unit"           json:"isResolved"`
	ResolvedBy  *string    `gorm:"type:text"                                  json:"resolvedBy,omitempty"`
	ResolvedAt  *time.Time `                                                  json:"resolvedAt,omitempty"`
	Notes       *string    `gorm:"type:text"                                  json:"notes,omitempty"`
}

func (p *Problem) Resolve(by string, notes *string, at time.Time) {
	p.IsResolved = true
	p.ResolvedBy = &by
	p.ResolvedAt = &at
	if notes != nil {
		p.Notes = notes
	}
}
