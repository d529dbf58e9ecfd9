package models

import "time"

// EstablishmentImage is one portfolio image row. Rows are replaced in bulk
// or selectively deleted during moderation, never updated in place.
type EstablishmentImage struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	EstablishmentID uint      `gorm:"not null;index:idx_establishment_images_establishment_id" json:"establishment_id"`
	ImageURL        string    `gorm:"size:512;not null" json:"image_url"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (EstablishmentImage) TableName() string {
	return "establishment_images"
}

// EstablishmentImageFilter represents filter criteria for image queries
type EstablishmentImageFilter struct {
	ID              *uint
	EstablishmentID *uint
	ImageURLs       []string
}
