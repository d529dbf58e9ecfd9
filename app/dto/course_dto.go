// Package dto
package dto

type CreateCourseRequest struct {
	Name        string  `json:"name" form:"name" validate:"required,min=2,max=255"`
	Institution string  `json:"institution" form:"institution" validate:"required,min=2,max=255"`
	Description string  `json:"description" form:"description" validate:"omitempty,max=5000"`
	Modality    string  `json:"modality" form:"modality" validate:"omitempty,max=64"`
	Workload    *string `json:"workload" form:"workload" validate:"omitempty,max=64"`
	URL         *string `json:"url" form:"url" validate:"omitempty,max=512"`
}

type UpdateCourseRequest struct {
	Name        *string `json:"name" form:"name" validate:"omitempty,min=2,max=255"`
	Institution *string `json:"institution" form:"institution" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=5000"`
	Modality    *string `json:"modality" form:"modality" validate:"omitempty,max=64"`
	Workload    *string `json:"workload" form:"workload" validate:"omitempty,max=64"`
	URL         *string `json:"url" form:"url" validate:"omitempty,max=512"`
}

type CourseDTO struct {
	ID          uint    `json:"id" example:"1"`
	Name        string  `json:"name" example:"Gestão Financeira para MEI"`
	Institution string  `json:"institution" example:"SEBRAE"`
	Description string  `json:"description,omitempty"`
	Modality    string  `json:"modality,omitempty" example:"online"`
	Workload    *string `json:"workload,omitempty"`
	URL         *string `json:"url,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	CreatedAt   string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}
