package models

import "time"

// ViewCounter tracks hits per normalized identifier (HOME, CAT_<NAME>,
// CURSO_<NAME>, ...). Rows are created lazily and only ever incremented.
type ViewCounter struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Identifier string    `gorm:"size:255;not null;uniqueIndex:idx_view_counters_identifier" json:"identifier"`
	Count      int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ViewCounter) TableName() string {
	return "view_counters"
}

// ViewCounterFilter represents filter criteria for counter queries
type ViewCounterFilter struct {
	ID         *uint
	Identifier *string
}
