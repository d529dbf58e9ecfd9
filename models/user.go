package models

import "time"

// User is a platform account that can leave reviews on establishments.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:64;not null" json:"username"`
	Email          string    `gorm:"size:255;not null;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	EmailConfirmed bool      `gorm:"not null;default:false" json:"email_confirmed"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Reviews []Review `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID             *uint
	Email          *string
	Username       *string
	EmailConfirmed *bool
}
