// Package dto
package dto

type UserDTO struct {
	ID             uint   `json:"id" example:"1"`
	Username       string `json:"username" example:"joao"`
	Email          string `json:"email" example:"joao@example.com"`
	EmailConfirmed bool   `json:"email_confirmed" example:"true"`
	CreatedAt      string `json:"created_at" example:"2024-01-15T10:30:00Z"`
	ReviewCount    int    `json:"review_count" example:"3"`
}

type ReviewDTO struct {
	ID              uint        `json:"id" example:"10"`
	UserID          uint        `json:"user_id" example:"1"`
	Username        string      `json:"username,omitempty"`
	EstablishmentID uint        `json:"establishment_id" example:"4"`
	Rating          *int        `json:"rating,omitempty" example:"5"`
	Comment         string      `json:"comment"`
	CreatedAt       string      `json:"created_at" example:"2024-01-15T10:30:00Z"`
	Replies         []ReviewDTO `json:"replies,omitempty"`
}

type ReviewReplyRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=5000"`
}
