package models

import "time"

// Course is a training offer shown in the courses section.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Institution string    `gorm:"size:255;not null" json:"institution"`
	Description string    `gorm:"type:text" json:"description"`
	Modality    string    `gorm:"size:64" json:"modality"`
	Workload    *string   `gorm:"size:64" json:"workload,omitempty"`
	URL         *string   `gorm:"size:512" json:"url,omitempty"`
	ImageURL    *string   `gorm:"size:512" json:"image_url,omitempty"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseFilter represents filter criteria for course queries
type CourseFilter struct {
	ID          *uint
	Name        *string
	Institution *string
	Modality    *string
}
