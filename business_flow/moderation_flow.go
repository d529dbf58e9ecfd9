package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	"github.com/meidesaqua/meidesaqua-api/utils"
	"gorm.io/gorm"
)

// ModerationFlow drives the establishment lifecycle: approving, editing,
// rejecting and directly updating listings. Every operation mutates the
// database inside one transaction; file deletions and notifications are
// queued and executed only after the transaction commits.
type ModerationFlow interface {
	Approve(ctx context.Context, id uint, metadata *ClientMetadata) (*dto.ModerationResult, error)
	EditAndApprove(ctx context.Context, id uint, req *dto.EstablishmentEditRequest, metadata *ClientMetadata) (*dto.ModerationResult, error)
	AdminDirectUpdate(ctx context.Context, id uint, req *dto.EstablishmentEditRequest, metadata *ClientMetadata) (*dto.ModerationResult, error)
	Reject(ctx context.Context, id uint, reason string, metadata *ClientMetadata) (*dto.ModerationResult, error)
	ListPending(ctx context.Context) ([]dto.EstablishmentDTO, error)
}

// ModerationFlowImpl implements ModerationFlow
type ModerationFlowImpl struct {
	db        *gorm.DB
	estRepo   repository.EstablishmentRepository
	imageRepo repository.EstablishmentImageRepository
	auditRepo repository.AuditLogRepository
	storage   services.FileStorage
	notifier  services.NotificationService
	cache     services.ListingCache
}

func NewModerationFlow(
	db *gorm.DB,
	estRepo repository.EstablishmentRepository,
	imageRepo repository.EstablishmentImageRepository,
	auditRepo repository.AuditLogRepository,
	storage services.FileStorage,
	notifier services.NotificationService,
	cache services.ListingCache,
) ModerationFlow {
	return &ModerationFlowImpl{
		db:        db,
		estRepo:   estRepo,
		imageRepo: imageRepo,
		auditRepo: auditRepo,
		storage:   storage,
		notifier:  notifier,
		cache:     cache,
	}
}

func (m *ModerationFlowImpl) Approve(ctx context.Context, id uint, metadata *ClientMetadata) (*dto.ModerationResult, error) {
	queue := &sideEffectQueue{}
	var result *dto.ModerationResult

	err := repository.WithTransaction(ctx, m.db, func(txCtx context.Context) error {
		est, err := m.estRepo.ByIDWithImages(txCtx, id)
		if err != nil {
			return NewBusinessError("APPROVE_FAILED", "Failed to load establishment", err)
		}
		if est == nil {
			return NewBusinessError("ESTABLISHMENT_NOT_FOUND", "Establishment not found", ErrEstablishmentNotFound)
		}

		switch est.Status {
		case models.StatusPendingApproval:
			est.Status = models.StatusActive
			est.Active = true
			est.PendingChanges = nil
			if err := m.estRepo.Update(txCtx, est); err != nil {
				return NewBusinessError("APPROVE_FAILED", "Failed to activate establishment", err)
			}
			m.queueNotification(queue, est.Email, approvedEmail(est.TradeName))
			result = &dto.ModerationResult{
				Message:         "Establishment approved",
				EstablishmentID: est.ID,
				Status:          est.Status,
			}

		case models.StatusPendingUpdate:
			if err := m.applyStagedChanges(txCtx, est, queue); err != nil {
				return err
			}
			est.Status = models.StatusActive
			est.Active = true
			est.PendingChanges = nil
			if err := m.estRepo.Update(txCtx, est); err != nil {
				return NewBusinessError("APPROVE_FAILED", "Failed to apply staged changes", err)
			}
			m.queueNotification(queue, est.Email, updateApprovedEmail(est.TradeName))
			result = &dto.ModerationResult{
				Message:         "Update approved",
				EstablishmentID: est.ID,
				Status:          est.Status,
			}

		case models.StatusPendingDeletion:
			contactEmail := est.Email
			tradeName := est.TradeName
			category := est.Category
			if err := m.estRepo.DeleteByID(txCtx, est.ID); err != nil {
				return NewBusinessError("APPROVE_FAILED", "Failed to delete establishment", err)
			}
			queue.add("delete upload tree", func() error {
				return m.storage.DeleteTree(category, tradeName)
			})
			m.queueNotification(queue, contactEmail, removedEmail(tradeName))
			result = &dto.ModerationResult{
				Message:         "Establishment removed",
				EstablishmentID: id,
			}

		default:
			// Already active: nothing to approve, report without mutating.
			result = &dto.ModerationResult{
				Message:         "Nothing to approve",
				EstablishmentID: est.ID,
				Status:          est.Status,
			}
		}
		return nil
	})
	if err != nil {
		m.audit(ctx, models.AuditActionEstablishmentApproved, id, metadata, false, err)
		return nil, err
	}

	queue.drain(m.sideEffectFailureAuditor(ctx, id, metadata))
	m.invalidateListings(ctx)
	m.audit(ctx, models.AuditActionEstablishmentApproved, id, metadata, true, nil)
	return result, nil
}

func (m *ModerationFlowImpl) EditAndApprove(ctx context.Context, id uint, req *dto.EstablishmentEditRequest, metadata *ClientMetadata) (*dto.ModerationResult, error) {
	queue := &sideEffectQueue{}
	var result *dto.ModerationResult

	err := repository.WithTransaction(ctx, m.db, func(txCtx context.Context) error {
		est, err := m.estRepo.ByIDWithImages(txCtx, id)
		if err != nil {
			return NewBusinessError("EDIT_APPROVE_FAILED", "Failed to load establishment", err)
		}
		if est == nil {
			return NewBusinessError("ESTABLISHMENT_NOT_FOUND", "Establishment not found", ErrEstablishmentNotFound)
		}

		wasPendingApproval := est.Status == models.StatusPendingApproval

		if err := m.applyAdminEdit(txCtx, est, req, queue); err != nil {
			return err
		}

		est.Status = models.StatusActive
		est.Active = true
		est.PendingChanges = nil
		if err := m.estRepo.Update(txCtx, est); err != nil {
			return NewBusinessError("EDIT_APPROVE_FAILED", "Failed to persist establishment", err)
		}

		if wasPendingApproval {
			m.queueNotification(queue, est.Email, approvedEmail(est.TradeName))
		} else {
			m.queueNotification(queue, est.Email, updateApprovedEmail(est.TradeName))
		}
		result = &dto.ModerationResult{
			Message:         "Establishment approved with edits",
			EstablishmentID: est.ID,
			Status:          est.Status,
		}
		return nil
	})
	if err != nil {
		m.audit(ctx, models.AuditActionEstablishmentEdited, id, metadata, false, err)
		return nil, err
	}

	queue.drain(m.sideEffectFailureAuditor(ctx, id, metadata))
	m.invalidateListings(ctx)
	m.audit(ctx, models.AuditActionEstablishmentEdited, id, metadata, true, nil)
	return result, nil
}

// AdminDirectUpdate unifies editing and approval. On a pending record it
// behaves like EditAndApprove; on an already-active record it edits in
// place with no status transition and no notification. The silent-edit
// versus notified-approval asymmetry is intentional.
func (m *ModerationFlowImpl) AdminDirectUpdate(ctx context.Context, id uint, req *dto.EstablishmentEditRequest, metadata *ClientMetadata) (*dto.ModerationResult, error) {
	queue := &sideEffectQueue{}
	var result *dto.ModerationResult

	err := repository.WithTransaction(ctx, m.db, func(txCtx context.Context) error {
		est, err := m.estRepo.ByIDWithImages(txCtx, id)
		if err != nil {
			return NewBusinessError("DIRECT_UPDATE_FAILED", "Failed to load establishment", err)
		}
		if est == nil {
			return NewBusinessError("ESTABLISHMENT_NOT_FOUND", "Establishment not found", ErrEstablishmentNotFound)
		}

		wasPending := est.IsPending()
		wasPendingApproval := est.Status == models.StatusPendingApproval

		if err := m.applyAdminEdit(txCtx, est, req, queue); err != nil {
			return err
		}

		if wasPending {
			est.Status = models.StatusActive
			est.Active = true
		}
		// A stale payload on an active record is cleared defensively.
		est.PendingChanges = nil
		if err := m.estRepo.Update(txCtx, est); err != nil {
			return NewBusinessError("DIRECT_UPDATE_FAILED", "Failed to persist establishment", err)
		}

		if wasPending {
			if wasPendingApproval {
				m.queueNotification(queue, est.Email, approvedEmail(est.TradeName))
			} else {
				m.queueNotification(queue, est.Email, updateApprovedEmail(est.TradeName))
			}
		}
		result = &dto.ModerationResult{
			Message:         "Establishment updated",
			EstablishmentID: est.ID,
			Status:          est.Status,
		}
		return nil
	})
	if err != nil {
		m.audit(ctx, models.AuditActionEstablishmentEdited, id, metadata, false, err)
		return nil, err
	}

	queue.drain(m.sideEffectFailureAuditor(ctx, id, metadata))
	m.invalidateListings(ctx)
	m.audit(ctx, models.AuditActionEstablishmentEdited, id, metadata, true, nil)
	return result, nil
}

func (m *ModerationFlowImpl) Reject(ctx context.Context, id uint, reason string, metadata *ClientMetadata) (*dto.ModerationResult, error) {
	queue := &sideEffectQueue{}
	var result *dto.ModerationResult

	err := repository.WithTransaction(ctx, m.db, func(txCtx context.Context) error {
		est, err := m.estRepo.ByIDWithImages(txCtx, id)
		if err != nil {
			return NewBusinessError("REJECT_FAILED", "Failed to load establishment", err)
		}
		if est == nil {
			return NewBusinessError("ESTABLISHMENT_NOT_FOUND", "Establishment not found", ErrEstablishmentNotFound)
		}

		switch est.Status {
		case models.StatusPendingApproval:
			contactEmail := est.Email
			tradeName := est.TradeName
			category := est.Category
			if err := m.estRepo.DeleteByID(txCtx, est.ID); err != nil {
				return NewBusinessError("REJECT_FAILED", "Failed to delete establishment", err)
			}
			queue.add("delete upload tree", func() error {
				return m.storage.DeleteTree(category, tradeName)
			})
			m.queueNotification(queue, contactEmail, signupRejectedEmail(tradeName, reason))
			result = &dto.ModerationResult{
				Message:         "Signup rejected",
				EstablishmentID: id,
			}

		case models.StatusPendingUpdate, models.StatusPendingDeletion:
			wasDeletion := est.Status == models.StatusPendingDeletion
			m.queueDiscardedProposalFiles(est, queue)
			est.Status = models.StatusActive
			est.PendingChanges = nil
			if err := m.estRepo.Update(txCtx, est); err != nil {
				return NewBusinessError("REJECT_FAILED", "Failed to revert establishment", err)
			}
			if wasDeletion {
				m.queueNotification(queue, est.Email, deletionRejectedEmail(est.TradeName, reason))
			} else {
				m.queueNotification(queue, est.Email, updateRejectedEmail(est.TradeName, reason))
			}
			result = &dto.ModerationResult{
				Message:         "Request rejected, establishment kept active",
				EstablishmentID: est.ID,
				Status:          est.Status,
			}

		default:
			return NewBusinessError("INVALID_TRANSITION", "Establishment is not in a pending state", ErrNotPending)
		}
		return nil
	})
	if err != nil {
		m.audit(ctx, models.AuditActionEstablishmentRejected, id, metadata, false, err)
		return nil, err
	}

	queue.drain(m.sideEffectFailureAuditor(ctx, id, metadata))
	m.invalidateListings(ctx)
	m.audit(ctx, models.AuditActionEstablishmentRejected, id, metadata, true, nil)
	return result, nil
}

func (m *ModerationFlowImpl) ListPending(ctx context.Context) ([]dto.EstablishmentDTO, error) {
	rows, err := m.estRepo.ListPending(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_PENDING_FAILED", "Failed to list pending establishments", err)
	}
	out := make([]dto.EstablishmentDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToEstablishmentDTO(*row))
	}
	return out, nil
}

// applyStagedChanges merges the owner-submitted payload into the record:
// business fields, logo swap and portfolio replacement.
func (m *ModerationFlowImpl) applyStagedChanges(ctx context.Context, est *models.Establishment, queue *sideEffectQueue) error {
	pc := est.PendingChanges
	if pc == nil {
		return nil
	}

	if pc.Logo != nil {
		if est.LogoURL != nil && *est.LogoURL != *pc.Logo {
			oldLogo := *est.LogoURL
			queue.add("delete old logo", func() error {
				return m.storage.DeleteFile(oldLogo)
			})
		}
		est.LogoURL = pc.Logo
	}

	if len(pc.Images) > 0 {
		plan := planImageReconciliation(imageURLs(est.Images), pc.Images, nil)
		if err := applyImagePlan(ctx, m.imageRepo, m.storage, est.ID, plan, queue); err != nil {
			return NewBusinessError("IMAGE_RECONCILE_FAILED", "Failed to reconcile portfolio", err)
		}
	}

	pc.ApplyTo(est)
	return nil
}

// applyAdminEdit merges staged changes first, then the admin overrides, and
// resolves the tagged logo action and the portfolio reconciliation.
func (m *ModerationFlowImpl) applyAdminEdit(ctx context.Context, est *models.Establishment, req *dto.EstablishmentEditRequest, queue *sideEffectQueue) error {
	pc := est.PendingChanges
	if pc != nil {
		pc.ApplyTo(est)
	}
	if req == nil {
		req = &dto.EstablishmentEditRequest{}
	}
	req.ToPendingChanges().ApplyTo(est)

	switch req.LogoAction {
	case dto.LogoActionClear:
		if est.LogoURL != nil {
			oldLogo := *est.LogoURL
			queue.add("delete old logo", func() error {
				return m.storage.DeleteFile(oldLogo)
			})
		}
		est.LogoURL = nil
	case dto.LogoActionSet:
		if req.LogoURL == nil {
			return NewBusinessError("VALIDATION_ERROR", "logo_url is required when logo_action is set", nil)
		}
		if est.LogoURL != nil && *est.LogoURL != *req.LogoURL {
			oldLogo := *est.LogoURL
			queue.add("delete old logo", func() error {
				return m.storage.DeleteFile(oldLogo)
			})
		}
		est.LogoURL = req.LogoURL
	default:
		// Keep: fall back to the staged logo when one was proposed.
		if pc != nil && pc.Logo != nil {
			if est.LogoURL != nil && *est.LogoURL != *pc.Logo {
				oldLogo := *est.LogoURL
				queue.add("delete old logo", func() error {
					return m.storage.DeleteFile(oldLogo)
				})
			}
			est.LogoURL = pc.Logo
		}
	}

	proposed := req.Images
	if len(proposed) == 0 && pc != nil {
		proposed = pc.Images
	}
	plan := planImageReconciliation(imageURLs(est.Images), proposed, req.ExcludeImages)
	if err := applyImagePlan(ctx, m.imageRepo, m.storage, est.ID, plan, queue); err != nil {
		return NewBusinessError("IMAGE_RECONCILE_FAILED", "Failed to reconcile portfolio", err)
	}
	return nil
}

// queueDiscardedProposalFiles removes files that were staged for a proposal
// which is now rejected: the proposed logo and any proposed image that never
// became a persisted row.
func (m *ModerationFlowImpl) queueDiscardedProposalFiles(est *models.Establishment, queue *sideEffectQueue) {
	pc := est.PendingChanges
	if pc == nil {
		return
	}
	current := make(map[string]bool, len(est.Images)+1)
	for _, img := range est.Images {
		current[img.ImageURL] = true
	}
	if est.LogoURL != nil {
		current[*est.LogoURL] = true
	}

	if pc.Logo != nil && !current[*pc.Logo] {
		proposedLogo := *pc.Logo
		queue.add("delete proposed logo", func() error {
			return m.storage.DeleteFile(proposedLogo)
		})
	}
	for _, url := range pc.Images {
		if current[url] {
			continue
		}
		proposedImage := url
		queue.add("delete proposed image", func() error {
			return m.storage.DeleteFile(proposedImage)
		})
	}
}

func (m *ModerationFlowImpl) queueNotification(queue *sideEffectQueue, to string, msg emailMessage) {
	if m.notifier == nil || to == "" {
		return
	}
	queue.add(fmt.Sprintf("notify %s", to), func() error {
		return m.notifier.SendEmail(to, msg.Subject, msg.Body)
	})
}

// sideEffectFailureAuditor records a failed post-commit task without ever
// propagating the failure.
func (m *ModerationFlowImpl) sideEffectFailureAuditor(ctx context.Context, establishmentID uint, metadata *ClientMetadata) func(name string, err error) {
	return func(name string, err error) {
		action := models.AuditActionFileCleanupFailed
		if strings.HasPrefix(name, "notify") {
			action = models.AuditActionNotificationFailed
		}
		writeAudit(ctx, m.auditRepo, &models.AuditLog{
			EstablishmentID: &establishmentID,
			Action:          action,
			Description:     utils.ToPtr(name),
			Success:         utils.ToPtr(false),
			ErrorMessage:    utils.ToPtr(err.Error()),
		}, metadata)
	}
}

func (m *ModerationFlowImpl) audit(ctx context.Context, action string, establishmentID uint, metadata *ClientMetadata, success bool, opErr error) {
	entry := &models.AuditLog{
		EstablishmentID: &establishmentID,
		Action:          action,
		Success:         utils.ToPtr(success),
	}
	if opErr != nil {
		entry.ErrorMessage = utils.ToPtr(opErr.Error())
	}
	writeAudit(ctx, m.auditRepo, entry, metadata)
}

func (m *ModerationFlowImpl) invalidateListings(ctx context.Context) {
	if m.cache == nil {
		return
	}
	if err := m.cache.InvalidateActiveListings(ctx); err != nil {
		// Cache staleness is tolerable; the TTL bounds it.
		log.Printf("failed to invalidate listings cache: %v", err)
	}
}

func imageURLs(images []models.EstablishmentImage) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.ImageURL)
	}
	return out
}
