// Package businessflow contains the core business logic and use cases for the directory service
package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	"github.com/meidesaqua/meidesaqua-api/utils"
)

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// sideEffect is one deferred task (file delete, email send) that runs after
// the surrounding transaction commits. Each task fails independently and is
// only ever logged; it can never change the outcome of the commit.
type sideEffect struct {
	name string
	run  func() error
}

type sideEffectQueue struct {
	effects []sideEffect
}

func (q *sideEffectQueue) add(name string, run func() error) {
	q.effects = append(q.effects, sideEffect{name: name, run: run})
}

// drain executes queued effects in order. Failures are logged and reported
// to onFailure (for audit rows) but never returned.
func (q *sideEffectQueue) drain(onFailure func(name string, err error)) {
	for _, effect := range q.effects {
		if err := effect.run(); err != nil {
			log.Printf("post-commit side effect %s failed: %v", effect.name, err)
			if onFailure != nil {
				onFailure(effect.name, err)
			}
		}
	}
	q.effects = nil
}

// writeAudit stores an audit row outside any caller transaction. Audit
// failures are logged, not propagated.
func writeAudit(ctx context.Context, repo repository.AuditLogRepository, entry *models.AuditLog, metadata *ClientMetadata) {
	if repo == nil || entry == nil {
		return
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			entry.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			entry.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			entry.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	entry.CreatedAt = utils.UTCNow()
	auditCtx := context.WithValue(ctx, repository.TxContextKey, nil)
	if err := repo.Save(auditCtx, entry); err != nil {
		log.Printf("failed to write audit log %s: %v", entry.Action, err)
	}
}

// ToEstablishmentDTO converts an establishment model to its public projection
func ToEstablishmentDTO(e models.Establishment) dto.EstablishmentDTO {
	imageURLs := make([]string, 0, len(e.Images))
	for _, img := range e.Images {
		imageURLs = append(imageURLs, img.ImageURL)
	}
	return dto.EstablishmentDTO{
		ID:                      e.ID,
		Status:                  e.Status,
		Active:                  e.Active,
		TradeName:               e.TradeName,
		CNPJ:                    e.CNPJ,
		Category:                e.Category,
		OwnerName:               e.OwnerName,
		CNAE:                    e.CNAE,
		Email:                   e.Email,
		ContactPhone:            e.ContactPhone,
		Address:                 e.Address,
		Description:             e.Description,
		DifferentialDescription: e.DifferentialDescription,
		OperatingAreas:          e.OperatingAreas,
		Website:                 e.Website,
		Instagram:               e.Instagram,
		Goal:                    e.Goal,
		Justification:           e.Justification,
		TargetAudience:          e.TargetAudience,
		Impact:                  e.Impact,
		LogoURL:                 e.LogoURL,
		ImageURLs:               imageURLs,
		HasPendingChanges:       e.PendingChanges != nil,
		CreatedAt:               e.CreatedAt.Format(time.RFC3339),
	}
}

// ToCourseDTO converts a course model to its projection
func ToCourseDTO(c models.Course) dto.CourseDTO {
	return dto.CourseDTO{
		ID:          c.ID,
		Name:        c.Name,
		Institution: c.Institution,
		Description: c.Description,
		Modality:    c.Modality,
		Workload:    c.Workload,
		URL:         c.URL,
		ImageURL:    c.ImageURL,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

// ToReviewDTO converts a review model, including loaded replies
func ToReviewDTO(r models.Review) dto.ReviewDTO {
	out := dto.ReviewDTO{
		ID:              r.ID,
		UserID:          r.UserID,
		EstablishmentID: r.EstablishmentID,
		Rating:          r.Rating,
		Comment:         r.Comment,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if r.User != nil {
		out.Username = r.User.Username
	}
	for _, reply := range r.Replies {
		out.Replies = append(out.Replies, ToReviewDTO(reply))
	}
	return out
}

// ToUserDTO converts a user model to its projection
func ToUserDTO(u models.User, reviewCount int) dto.UserDTO {
	return dto.UserDTO{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
		CreatedAt:      u.CreatedAt.Format(time.RFC3339),
		ReviewCount:    reviewCount,
	}
}

// ToAdminDTOModel converts an admin model for login responses
func ToAdminDTOModel(a models.Admin) dto.AdminDTO {
	return dto.AdminDTO{
		ID:           a.ID,
		UUID:         a.UUID.String(),
		Username:     a.Username,
		ContactEmail: a.ContactEmail,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
}

// ToAdminSessionDTO builds the token envelope for login responses
func ToAdminSessionDTO(accessToken, refreshToken string) dto.AdminSessionDTO {
	return dto.AdminSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(utils.AccessTokenTTL.Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    utils.UTCNowRFC3339(),
	}
}
