package models

import "time"

// Review is a user rating on an establishment. A review with a non-nil
// ParentID is a reply in the thread under its parent.
type Review struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index:idx_reviews_user_id" json:"user_id"`
	EstablishmentID uint      `gorm:"not null;index:idx_reviews_establishment_id" json:"establishment_id"`
	ParentID        *uint     `gorm:"index:idx_reviews_parent_id" json:"parent_id,omitempty"`
	Rating          *int      `gorm:"check:rating BETWEEN 1 AND 5" json:"rating,omitempty"`
	Comment         string    `gorm:"type:text" json:"comment"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	User    *User    `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Replies []Review `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

// IsReply reports whether this review is a threaded reply.
func (r *Review) IsReply() bool {
	return r.ParentID != nil
}

// ReviewFilter represents filter criteria for review queries
type ReviewFilter struct {
	ID              *uint
	UserID          *uint
	EstablishmentID *uint
	ParentID        *uint
	TopLevelOnly    bool
}
