// Package models contains domain entities and business models for the directory service
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Establishment lifecycle states
const (
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusPendingUpdate   = "PENDING_UPDATE"
	StatusPendingDeletion = "PENDING_DELETION"
	StatusActive          = "ACTIVE"
)

// PendingStatuses lists every state that awaits a moderation decision.
var PendingStatuses = []string{StatusPendingApproval, StatusPendingUpdate, StatusPendingDeletion}

// Establishment represents a business listing owned by a micro-entrepreneur.
type Establishment struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Status string `gorm:"size:32;not null;default:'PENDING_APPROVAL';index:idx_establishments_status" json:"status"`
	Active bool   `gorm:"not null;default:false;index:idx_establishments_active" json:"active"`

	TradeName               string         `gorm:"size:255;not null" json:"trade_name"`
	CNPJ                    string         `gorm:"size:18;not null;uniqueIndex:idx_establishments_cnpj" json:"cnpj"`
	Category                string         `gorm:"size:128;not null;index:idx_establishments_category" json:"category"`
	OwnerName               string         `gorm:"size:255;not null" json:"owner_name"`
	OwnerCPF                string         `gorm:"size:14" json:"owner_cpf"`
	CNAE                    string         `gorm:"size:32" json:"cnae"`
	Email                   string         `gorm:"size:255;not null;uniqueIndex:idx_establishments_email" json:"email"`
	ContactPhone            string         `gorm:"size:32" json:"contact_phone"`
	Address                 string         `gorm:"size:512" json:"address"`
	Description             string         `gorm:"type:text" json:"description"`
	DifferentialDescription string         `gorm:"type:text" json:"differential_description"`
	OperatingAreas          pq.StringArray `gorm:"type:text[]" json:"operating_areas"`
	InvisibleTags           pq.StringArray `gorm:"type:text[]" json:"invisible_tags"`
	Website                 *string        `gorm:"size:512" json:"website,omitempty"`
	Instagram               *string        `gorm:"size:255" json:"instagram,omitempty"`
	Goal                    *string        `gorm:"type:text" json:"goal,omitempty"`
	Justification           *string        `gorm:"type:text" json:"justification,omitempty"`
	TargetAudience          *string        `gorm:"type:text" json:"target_audience,omitempty"`
	Impact                  *string        `gorm:"type:text" json:"impact,omitempty"`

	LogoURL        *string         `gorm:"size:512" json:"logo_url,omitempty"`
	PendingChanges *PendingChanges `gorm:"type:jsonb" json:"pending_changes,omitempty"`

	Images  []EstablishmentImage `gorm:"foreignKey:EstablishmentID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Reviews []Review             `gorm:"foreignKey:EstablishmentID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Establishment) TableName() string {
	return "establishments"
}

// IsPending reports whether the record awaits any moderation decision.
func (e *Establishment) IsPending() bool {
	switch e.Status {
	case StatusPendingApproval, StatusPendingUpdate, StatusPendingDeletion:
		return true
	}
	return false
}

// PendingChanges is the staged diff an owner submits while the listing is
// under moderation. Only non-nil fields are merged on approval; Logo and
// Images are resolved separately by the moderation flow.
type PendingChanges struct {
	TradeName               *string  `json:"trade_name,omitempty"`
	CNPJ                    *string  `json:"cnpj,omitempty"`
	Category                *string  `json:"category,omitempty"`
	OwnerName               *string  `json:"owner_name,omitempty"`
	OwnerCPF                *string  `json:"owner_cpf,omitempty"`
	CNAE                    *string  `json:"cnae,omitempty"`
	Email                   *string  `json:"email,omitempty"`
	ContactPhone            *string  `json:"contact_phone,omitempty"`
	Address                 *string  `json:"address,omitempty"`
	Description             *string  `json:"description,omitempty"`
	DifferentialDescription *string  `json:"differential_description,omitempty"`
	OperatingAreas          []string `json:"operating_areas,omitempty"`
	InvisibleTags           []string `json:"invisible_tags,omitempty"`
	Website                 *string  `json:"website,omitempty"`
	Instagram               *string  `json:"instagram,omitempty"`
	Goal                    *string  `json:"goal,omitempty"`
	Justification           *string  `json:"justification,omitempty"`
	TargetAudience          *string  `json:"target_audience,omitempty"`
	Impact                  *string  `json:"impact,omitempty"`

	Logo   *string  `json:"logo,omitempty"`
	Images []string `json:"imagens,omitempty"`
}

// ApplyTo merges every non-nil business field into the establishment.
// Logo and Images are intentionally not touched here.
func (p *PendingChanges) ApplyTo(e *Establishment) {
	if p == nil {
		return
	}
	if p.TradeName != nil {
		e.TradeName = *p.TradeName
	}
	if p.CNPJ != nil {
		e.CNPJ = *p.CNPJ
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.OwnerName != nil {
		e.OwnerName = *p.OwnerName
	}
	if p.OwnerCPF != nil {
		e.OwnerCPF = *p.OwnerCPF
	}
	if p.CNAE != nil {
		e.CNAE = *p.CNAE
	}
	if p.Email != nil {
		e.Email = *p.Email
	}
	if p.ContactPhone != nil {
		e.ContactPhone = *p.ContactPhone
	}
	if p.Address != nil {
		e.Address = *p.Address
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.DifferentialDescription != nil {
		e.DifferentialDescription = *p.DifferentialDescription
	}
	if p.OperatingAreas != nil {
		e.OperatingAreas = append(pq.StringArray{}, p.OperatingAreas...)
	}
	if p.InvisibleTags != nil {
		e.InvisibleTags = append(pq.StringArray{}, p.InvisibleTags...)
	}
	if p.Website != nil {
		e.Website = p.Website
	}
	if p.Instagram != nil {
		e.Instagram = p.Instagram
	}
	if p.Goal != nil {
		e.Goal = p.Goal
	}
	if p.Justification != nil {
		e.Justification = p.Justification
	}
	if p.TargetAudience != nil {
		e.TargetAudience = p.TargetAudience
	}
	if p.Impact != nil {
		e.Impact = p.Impact
	}
}

// Value implements driver.Valuer so the diff is stored as a jsonb column.
func (p *PendingChanges) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *PendingChanges) Scan(value any) error {
	if value == nil {
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for pending changes: %T", value)
	}
	return json.Unmarshal(raw, p)
}

// EstablishmentFilter represents filter criteria for establishment queries
type EstablishmentFilter struct {
	ID       *uint
	Status   *string
	Statuses []string
	Active   *bool
	CNPJ     *string
	Email    *string
	Category *string
}
