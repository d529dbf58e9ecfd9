// Package dto
package dto

import "github.com/meidesaqua/meidesaqua-api/models"

// RegisterEstablishmentRequest is the public signup payload. Logo and
// portfolio images arrive as multipart files alongside this form.
type RegisterEstablishmentRequest struct {
	TradeName               string   `json:"trade_name" form:"trade_name" validate:"required,min=2,max=255"`
	CNPJ                    string   `json:"cnpj" form:"cnpj" validate:"required,min=14,max=18"`
	Category                string   `json:"category" form:"category" validate:"required,min=2,max=128"`
	OwnerName               string   `json:"owner_name" form:"owner_name" validate:"required,min=2,max=255"`
	OwnerCPF                string   `json:"owner_cpf" form:"owner_cpf" validate:"omitempty,min=11,max=14"`
	CNAE                    string   `json:"cnae" form:"cnae" validate:"omitempty,max=32"`
	Email                   string   `json:"email" form:"email" validate:"required,email,max=255"`
	ContactPhone            string   `json:"contact_phone" form:"contact_phone" validate:"omitempty,max=32"`
	Address                 string   `json:"address" form:"address" validate:"omitempty,max=512"`
	Description             string   `json:"description" form:"description" validate:"omitempty,max=5000"`
	DifferentialDescription string   `json:"differential_description" form:"differential_description" validate:"omitempty,max=5000"`
	OperatingAreas          []string `json:"operating_areas" form:"operating_areas" validate:"omitempty,dive,max=128"`
	InvisibleTags           []string `json:"invisible_tags" form:"invisible_tags" validate:"omitempty,dive,max=128"`
	Website                 *string  `json:"website" form:"website" validate:"omitempty,max=512"`
	Instagram               *string  `json:"instagram" form:"instagram" validate:"omitempty,max=255"`
	Goal                    *string  `json:"goal" form:"goal" validate:"omitempty,max=5000"`
	Justification           *string  `json:"justification" form:"justification" validate:"omitempty,max=5000"`
	TargetAudience          *string  `json:"target_audience" form:"target_audience" validate:"omitempty,max=5000"`
	Impact                  *string  `json:"impact" form:"impact" validate:"omitempty,max=5000"`
}

// UpdateEstablishmentRequest stages proposed changes for an active listing,
// keyed by CNPJ. Nil fields are left untouched on approval.
type UpdateEstablishmentRequest struct {
	CNPJ                    string   `json:"cnpj" form:"cnpj" validate:"required,min=14,max=18"`
	TradeName               *string  `json:"trade_name" form:"trade_name" validate:"omitempty,min=2,max=255"`
	Category                *string  `json:"category" form:"category" validate:"omitempty,min=2,max=128"`
	OwnerName               *string  `json:"owner_name" form:"owner_name" validate:"omitempty,min=2,max=255"`
	OwnerCPF                *string  `json:"owner_cpf" form:"owner_cpf" validate:"omitempty,min=11,max=14"`
	CNAE                    *string  `json:"cnae" form:"cnae" validate:"omitempty,max=32"`
	Email                   *string  `json:"email" form:"email" validate:"omitempty,email,max=255"`
	ContactPhone            *string  `json:"contact_phone" form:"contact_phone" validate:"omitempty,max=32"`
	Address                 *string  `json:"address" form:"address" validate:"omitempty,max=512"`
	Description             *string  `json:"description" form:"description" validate:"omitempty,max=5000"`
	DifferentialDescription *string  `json:"differential_description" form:"differential_description" validate:"omitempty,max=5000"`
	OperatingAreas          []string `json:"operating_areas" form:"operating_areas" validate:"omitempty,dive,max=128"`
	InvisibleTags           []string `json:"invisible_tags" form:"invisible_tags" validate:"omitempty,dive,max=128"`
	Website                 *string  `json:"website" form:"website" validate:"omitempty,max=512"`
	Instagram               *string  `json:"instagram" form:"instagram" validate:"omitempty,max=255"`
	Goal                    *string  `json:"goal" form:"goal" validate:"omitempty,max=5000"`
	Justification           *string  `json:"justification" form:"justification" validate:"omitempty,max=5000"`
	TargetAudience          *string  `json:"target_audience" form:"target_audience" validate:"omitempty,max=5000"`
	Impact                  *string  `json:"impact" form:"impact" validate:"omitempty,max=5000"`
}

// ToPendingChanges converts the staged request into the typed diff that is
// persisted on the establishment row.
func (r *UpdateEstablishmentRequest) ToPendingChanges() *models.PendingChanges {
	return &models.PendingChanges{
		TradeName:               r.TradeName,
		Category:                r.Category,
		OwnerName:               r.OwnerName,
		OwnerCPF:                r.OwnerCPF,
		CNAE:                    r.CNAE,
		Email:                   r.Email,
		ContactPhone:            r.ContactPhone,
		Address:                 r.Address,
		Description:             r.Description,
		DifferentialDescription: r.DifferentialDescription,
		OperatingAreas:          r.OperatingAreas,
		InvisibleTags:           r.InvisibleTags,
		Website:                 r.Website,
		Instagram:               r.Instagram,
		Goal:                    r.Goal,
		Justification:           r.Justification,
		TargetAudience:          r.TargetAudience,
		Impact:                  r.Impact,
	}
}

// DeletionRequest asks for removal of an active listing.
type DeletionRequest struct {
	CNPJ  string `json:"cnpj" validate:"required,min=14,max=18"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// EstablishmentDTO is the public projection of a listing.
type EstablishmentDTO struct {
	ID                      uint     `json:"id" example:"1"`
	Status                  string   `json:"status" example:"ACTIVE"`
	Active                  bool     `json:"active" example:"true"`
	TradeName               string   `json:"trade_name" example:"Doces da Ana"`
	CNPJ                    string   `json:"cnpj" example:"12.345.678/0001-90"`
	Category                string   `json:"category" example:"Doces & Bolos"`
	OwnerName               string   `json:"owner_name" example:"Ana Souza"`
	CNAE                    string   `json:"cnae,omitempty"`
	Email                   string   `json:"email" example:"ana@example.com"`
	ContactPhone            string   `json:"contact_phone,omitempty"`
	Address                 string   `json:"address,omitempty"`
	Description             string   `json:"description,omitempty"`
	DifferentialDescription string   `json:"differential_description,omitempty"`
	OperatingAreas          []string `json:"operating_areas,omitempty"`
	Website                 *string  `json:"website,omitempty"`
	Instagram               *string  `json:"instagram,omitempty"`
	Goal                    *string  `json:"goal,omitempty"`
	Justification           *string  `json:"justification,omitempty"`
	TargetAudience          *string  `json:"target_audience,omitempty"`
	Impact                  *string  `json:"impact,omitempty"`
	LogoURL                 *string  `json:"logo_url,omitempty"`
	ImageURLs               []string `json:"image_urls,omitempty"`
	HasPendingChanges       bool     `json:"has_pending_changes"`
	CreatedAt               string   `json:"created_at" example:"2024-01-15T10:30:00Z"`
}
