package businessflow

import (
	"context"
	"log"
	"strings"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	"github.com/meidesaqua/meidesaqua-api/utils"
	"gorm.io/gorm"
)

// StagedUploads carries the staged file paths for a signup or update
// request. Handlers stage the multipart files; the flow relocates them under
// the establishment's upload directory.
type StagedUploads struct {
	Logo   string
	Images []string
}

// EstablishmentFlow covers the public side of the directory: signup, staged
// updates, deletion requests and the active listing.
type EstablishmentFlow interface {
	Register(ctx context.Context, req *dto.RegisterEstablishmentRequest, uploads StagedUploads, metadata *ClientMetadata) (*dto.EstablishmentDTO, error)
	RequestUpdate(ctx context.Context, req *dto.UpdateEstablishmentRequest, uploads StagedUploads, metadata *ClientMetadata) (*dto.EstablishmentDTO, error)
	RequestDeletion(ctx context.Context, req *dto.DeletionRequest, metadata *ClientMetadata) error
	ListActive(ctx context.Context) ([]dto.EstablishmentDTO, error)
	GetByID(ctx context.Context, id uint) (*dto.EstablishmentDTO, error)
}

// EstablishmentFlowImpl implements EstablishmentFlow
type EstablishmentFlowImpl struct {
	db        *gorm.DB
	estRepo   repository.EstablishmentRepository
	imageRepo repository.EstablishmentImageRepository
	auditRepo repository.AuditLogRepository
	storage   services.FileStorage
	cache     services.ListingCache
}

func NewEstablishmentFlow(
	db *gorm.DB,
	estRepo repository.EstablishmentRepository,
	imageRepo repository.EstablishmentImageRepository,
	auditRepo repository.AuditLogRepository,
	storage services.FileStorage,
	cache services.ListingCache,
) EstablishmentFlow {
	return &EstablishmentFlowImpl{
		db:        db,
		estRepo:   estRepo,
		imageRepo: imageRepo,
		auditRepo: auditRepo,
		storage:   storage,
		cache:     cache,
	}
}

func (f *EstablishmentFlowImpl) Register(ctx context.Context, req *dto.RegisterEstablishmentRequest, uploads StagedUploads, metadata *ClientMetadata) (*dto.EstablishmentDTO, error) {
	logoURL, imageURLs, err := f.relocateUploads(uploads, req.Category, req.TradeName)
	if err != nil {
		return nil, NewBusinessError("UPLOAD_FAILED", "Failed to store uploaded files", err)
	}

	var created *models.Establishment
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if existing, err := f.estRepo.ByCNPJ(txCtx, req.CNPJ); err != nil {
			return NewBusinessError("REGISTER_FAILED", "Failed to check CNPJ", err)
		} else if existing != nil {
			return NewBusinessError("CNPJ_ALREADY_EXISTS", "CNPJ already registered", ErrCNPJAlreadyExists)
		}
		if existing, err := f.estRepo.ByEmail(txCtx, req.Email); err != nil {
			return NewBusinessError("REGISTER_FAILED", "Failed to check email", err)
		} else if existing != nil {
			return NewBusinessError("EMAIL_ALREADY_EXISTS", "Email already registered", ErrEmailAlreadyExists)
		}

		est := &models.Establishment{
			Status:                  models.StatusPendingApproval,
			Active:                  false,
			TradeName:               req.TradeName,
			CNPJ:                    req.CNPJ,
			Category:                req.Category,
			OwnerName:               req.OwnerName,
			OwnerCPF:                req.OwnerCPF,
			CNAE:                    req.CNAE,
			Email:                   req.Email,
			ContactPhone:            req.ContactPhone,
			Address:                 req.Address,
			Description:             req.Description,
			DifferentialDescription: req.DifferentialDescription,
			OperatingAreas:          req.OperatingAreas,
			InvisibleTags:           req.InvisibleTags,
			Website:                 req.Website,
			Instagram:               req.Instagram,
			Goal:                    req.Goal,
			Justification:           req.Justification,
			TargetAudience:          req.TargetAudience,
			Impact:                  req.Impact,
			LogoURL:                 logoURL,
		}
		if err := f.estRepo.Save(txCtx, est); err != nil {
			return NewBusinessError("REGISTER_FAILED", "Failed to create establishment", err)
		}

		rows := make([]*models.EstablishmentImage, 0, len(imageURLs))
		for _, url := range imageURLs {
			rows = append(rows, &models.EstablishmentImage{EstablishmentID: est.ID, ImageURL: url})
		}
		if err := f.imageRepo.SaveBatch(txCtx, rows); err != nil {
			return NewBusinessError("REGISTER_FAILED", "Failed to store portfolio", err)
		}
		for _, row := range rows {
			est.Images = append(est.Images, *row)
		}
		created = est
		return nil
	})
	if err != nil {
		f.discardRelocated(logoURL, imageURLs)
		return nil, err
	}

	f.auditFor(ctx, models.AuditActionEstablishmentRegistered, created.ID, metadata, true, nil)
	out := ToEstablishmentDTO(*created)
	return &out, nil
}

func (f *EstablishmentFlowImpl) RequestUpdate(ctx context.Context, req *dto.UpdateEstablishmentRequest, uploads StagedUploads, metadata *ClientMetadata) (*dto.EstablishmentDTO, error) {
	var updated *models.Establishment
	var relocatedLogo *string
	var relocatedImages []string

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		est, err := f.estRepo.ByCNPJ(txCtx, req.CNPJ)
		if err != nil {
			return NewBusinessError("UPDATE_REQUEST_FAILED", "Failed to load establishment", err)
		}
		if est == nil {
			return NewBusinessError("ESTABLISHMENT_NOT_FOUND", "Establishment not found", ErrEstablishmentNotFound)
		}
		if est.Status != models.StatusActive {
			return NewBusinessError("REQUEST_ALREADY_PENDING", "Establishment already has a pending request", ErrRequestAlreadyPending)
		}

		relocatedLogo, relocatedImages, err = f.relocateUploads(uploads, est.Category, est.TradeName)
		if err != nil {
			return NewBusinessError("UPLOAD_FAILED", "Failed to store uploaded files", err)
		}

		pc := req.ToPendingChanges()
		if relocatedLogo != nil {
			pc.Logo = relocatedLogo
		}
		pc.Images = relocatedImages

		est.PendingChanges = pc
		est.Status = models.StatusPendingUpdate
		if err := f.estRepo.Update(txCtx, est); err != nil {
			return NewBusinessError("UPDATE_REQUEST_FAILED", "Failed to stage update", err)
		}
		updated = est
		return nil
	})
	if err != nil {
		f.discardRelocated(relocatedLogo, relocatedImages)
		return nil, err
	}

	f.invalidateListings(ctx)
	f.auditFor(ctx, models.AuditActionUpdateRequested, updated.ID, metadata, true, nil)
	out := ToEstablishmentDTO(*updated)
	return &out, nil
}

func (f *EstablishmentFlowImpl) RequestDeletion(ctx context.Context, req *dto.DeletionRequest, metadata *ClientMetadata) error {
	var estID uint
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		est, err := f.estRepo.ByCNPJ(txCtx, req.CNPJ)
		if err != nil {
			return NewBusinessError("DELETION_REQUEST_FAILED", "Failed to load establishment", err)
		}
		if est == nil {
			return NewBusinessError("ESTABLISHMENT_NOT_FOUND", "Establishment not found", ErrEstablishmentNotFound)
		}
		if !strings.EqualFold(strings.TrimSpace(req.Email), est.Email) {
			return NewBusinessError("OWNERSHIP_MISMATCH", "Email does not match establishment records", ErrOwnershipMismatch)
		}
		if est.Status != models.StatusActive {
			return NewBusinessError("REQUEST_ALREADY_PENDING", "Establishment already has a pending request", ErrRequestAlreadyPending)
		}

		est.Status = models.StatusPendingDeletion
		if err := f.estRepo.Update(txCtx, est); err != nil {
			return NewBusinessError("DELETION_REQUEST_FAILED", "Failed to stage deletion", err)
		}
		estID = est.ID
		return nil
	})
	if err != nil {
		return err
	}

	f.invalidateListings(ctx)
	f.auditFor(ctx, models.AuditActionDeletionRequested, estID, metadata, true, nil)
	return nil
}

func (f *EstablishmentFlowImpl) ListActive(ctx context.Context) ([]dto.EstablishmentDTO, error) {
	if f.cache != nil {
		if cached, ok := f.cache.GetActiveListings(ctx); ok {
			return cached, nil
		}
	}

	rows, err := f.estRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_ACTIVE_FAILED", "Failed to list establishments", err)
	}
	out := make([]dto.EstablishmentDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToEstablishmentDTO(*row))
	}

	if f.cache != nil {
		_ = f.cache.SetActiveListings(ctx, out)
	}
	return out, nil
}

func (f *EstablishmentFlowImpl) GetByID(ctx context.Context, id uint) (*dto.EstablishmentDTO, error) {
	est, err := f.estRepo.ByIDWithImages(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_ESTABLISHMENT_FAILED", "Failed to load establishment", err)
	}
	if est == nil || !est.Active {
		return nil, NewBusinessError("ESTABLISHMENT_NOT_FOUND", "Establishment not found", ErrEstablishmentNotFound)
	}
	out := ToEstablishmentDTO(*est)
	return &out, nil
}

// relocateUploads moves staged files into the establishment's upload tree.
func (f *EstablishmentFlowImpl) relocateUploads(uploads StagedUploads, category, tradeName string) (*string, []string, error) {
	var logoURL *string
	if uploads.Logo != "" {
		url, err := f.storage.Relocate(uploads.Logo, category, tradeName)
		if err != nil {
			return nil, nil, err
		}
		logoURL = &url
	}

	imageURLs := make([]string, 0, len(uploads.Images))
	for _, staged := range uploads.Images {
		url, err := f.storage.Relocate(staged, category, tradeName)
		if err != nil {
			f.discardRelocated(logoURL, imageURLs)
			return nil, nil, err
		}
		imageURLs = append(imageURLs, url)
	}
	return logoURL, imageURLs, nil
}

// discardRelocated removes files that were relocated for a request whose
// transaction did not commit. Failures are already logged by the storage
// layer's callers and do not matter here.
func (f *EstablishmentFlowImpl) discardRelocated(logoURL *string, imageURLs []string) {
	if logoURL != nil {
		_ = f.storage.DeleteFile(*logoURL)
	}
	for _, url := range imageURLs {
		_ = f.storage.DeleteFile(url)
	}
}

func (f *EstablishmentFlowImpl) invalidateListings(ctx context.Context) {
	if f.cache == nil {
		return
	}
	if err := f.cache.InvalidateActiveListings(ctx); err != nil {
		// Cache staleness is tolerable; the TTL bounds it.
		log.Printf("failed to invalidate listings cache: %v", err)
	}
}

func (f *EstablishmentFlowImpl) auditFor(ctx context.Context, action string, establishmentID uint, metadata *ClientMetadata, success bool, opErr error) {
	entry := &models.AuditLog{
		Action:  action,
		Success: utils.ToPtr(success),
	}
	if establishmentID != 0 {
		entry.EstablishmentID = utils.ToPtr(establishmentID)
	}
	if opErr != nil {
		entry.ErrorMessage = utils.ToPtr(opErr.Error())
	}
	writeAudit(ctx, f.auditRepo, entry, metadata)
}
