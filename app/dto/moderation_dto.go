// Package dto
package dto

import "github.com/meidesaqua/meidesaqua-api/models"

// Logo actions for admin edits. The tagged action removes the ambiguity
// between "field absent" and "field explicitly cleared".
const (
	LogoActionKeep  = "keep"
	LogoActionClear = "clear"
	LogoActionSet   = "set"
)

// EstablishmentEditRequest carries admin overrides for edit-and-approve and
// direct update. Nil fields keep the current (or staged) value.
type EstablishmentEditRequest struct {
	TradeName               *string  `json:"trade_name" validate:"omitempty,min=2,max=255"`
	CNPJ                    *string  `json:"cnpj" validate:"omitempty,min=14,max=18"`
	Category                *string  `json:"category" validate:"omitempty,min=2,max=128"`
	OwnerName               *string  `json:"owner_name" validate:"omitempty,min=2,max=255"`
	OwnerCPF                *string  `json:"owner_cpf" validate:"omitempty,min=11,max=14"`
	CNAE                    *string  `json:"cnae" validate:"omitempty,max=32"`
	Email                   *string  `json:"email" validate:"omitempty,email,max=255"`
	ContactPhone            *string  `json:"contact_phone" validate:"omitempty,max=32"`
	Address                 *string  `json:"address" validate:"omitempty,max=512"`
	Description             *string  `json:"description" validate:"omitempty,max=5000"`
	DifferentialDescription *string  `json:"differential_description" validate:"omitempty,max=5000"`
	OperatingAreas          []string `json:"operating_areas" validate:"omitempty,dive,max=128"`
	InvisibleTags           []string `json:"invisible_tags" validate:"omitempty,dive,max=128"`
	Website                 *string  `json:"website" validate:"omitempty,max=512"`
	Instagram               *string  `json:"instagram" validate:"omitempty,max=255"`
	Goal                    *string  `json:"goal" validate:"omitempty,max=5000"`
	Justification           *string  `json:"justification" validate:"omitempty,max=5000"`
	TargetAudience          *string  `json:"target_audience" validate:"omitempty,max=5000"`
	Impact                  *string  `json:"impact" validate:"omitempty,max=5000"`

	LogoAction string  `json:"logo_action" validate:"omitempty,oneof=keep clear set"`
	LogoURL    *string `json:"logo_url" validate:"omitempty,max=512"`

	// Images replaces the whole portfolio when non-empty.
	Images []string `json:"images" validate:"omitempty,max=12,dive,max=512"`
	// ExcludeImages drops URLs from the proposed set, or selectively
	// deletes existing images when no full set is given.
	ExcludeImages []string `json:"exclude_images" validate:"omitempty,max=24,dive,max=512"`
}

// ToPendingChanges maps the admin field overrides onto the typed diff so the
// same compile-time merge applies to staged and admin-edited values.
func (r *EstablishmentEditRequest) ToPendingChanges() *models.PendingChanges {
	if r == nil {
		return nil
	}
	return &models.PendingChanges{
		TradeName:               r.TradeName,
		CNPJ:                    r.CNPJ,
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

// RejectRequest carries the optional moderation reason.
type RejectRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=2000"`
}

// ModerationResult is returned by every moderation action.
type ModerationResult struct {
	Message         string `json:"message"`
	EstablishmentID uint   `json:"establishment_id,omitempty"`
	Status          string `json:"status,omitempty"`
}
