package businessflow

import (
	"context"
	"fmt"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	"github.com/meidesaqua/meidesaqua-api/utils"
	"gorm.io/gorm"
)

// UserAdminFlow exposes the user and review management operations of the
// admin panel. Deleting a review removes its whole reply thread.
type UserAdminFlow interface {
	ListUsers(ctx context.Context) ([]dto.UserDTO, error)
	GetUser(ctx context.Context, id uint) (*dto.UserDTO, error)
	ListEstablishmentReviews(ctx context.Context, establishmentID uint) ([]dto.ReviewDTO, error)
	DeleteReview(ctx context.Context, reviewID uint, metadata *ClientMetadata) error
	ReplyToReview(ctx context.Context, reviewID, authorUserID uint, req *dto.ReviewReplyRequest, metadata *ClientMetadata) (*dto.ReviewDTO, error)
}

// UserAdminFlowImpl implements UserAdminFlow
type UserAdminFlowImpl struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	reviewRepo repository.ReviewRepository
	auditRepo  repository.AuditLogRepository
}

func NewUserAdminFlow(db *gorm.DB, userRepo repository.UserRepository, reviewRepo repository.ReviewRepository, auditRepo repository.AuditLogRepository) UserAdminFlow {
	return &UserAdminFlowImpl{db: db, userRepo: userRepo, reviewRepo: reviewRepo, auditRepo: auditRepo}
}

func (f *UserAdminFlowImpl) ListUsers(ctx context.Context) ([]dto.UserDTO, error) {
	users, err := f.userRepo.ByFilter(ctx, models.UserFilter{}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_USERS_FAILED", "Failed to list users", err)
	}
	out := make([]dto.UserDTO, 0, len(users))
	for _, user := range users {
		count, err := f.reviewRepo.Count(ctx, models.ReviewFilter{UserID: &user.ID})
		if err != nil {
			return nil, NewBusinessError("LIST_USERS_FAILED", "Failed to count reviews", err)
		}
		out = append(out, ToUserDTO(*user, int(count)))
	}
	return out, nil
}

func (f *UserAdminFlowImpl) GetUser(ctx context.Context, id uint) (*dto.UserDTO, error) {
	user, err := f.userRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_USER_FAILED", "Failed to load user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}
	count, err := f.reviewRepo.Count(ctx, models.ReviewFilter{UserID: &user.ID})
	if err != nil {
		return nil, NewBusinessError("GET_USER_FAILED", "Failed to count reviews", err)
	}
	out := ToUserDTO(*user, int(count))
	return &out, nil
}

func (f *UserAdminFlowImpl) ListEstablishmentReviews(ctx context.Context, establishmentID uint) ([]dto.ReviewDTO, error) {
	reviews, err := f.reviewRepo.ListByEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, NewBusinessError("LIST_REVIEWS_FAILED", "Failed to list reviews", err)
	}
	out := make([]dto.ReviewDTO, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, ToReviewDTO(*review))
	}
	return out, nil
}

func (f *UserAdminFlowImpl) DeleteReview(ctx context.Context, reviewID uint, metadata *ClientMetadata) error {
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		review, err := f.reviewRepo.ByID(txCtx, reviewID)
		if err != nil {
			return NewBusinessError("DELETE_REVIEW_FAILED", "Failed to load review", err)
		}
		if review == nil {
			return NewBusinessError("REVIEW_NOT_FOUND", "Review not found", ErrReviewNotFound)
		}
		if err := f.reviewRepo.DeleteThread(txCtx, reviewID); err != nil {
			return NewBusinessError("DELETE_REVIEW_FAILED", "Failed to delete review thread", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	writeAudit(ctx, f.auditRepo, &models.AuditLog{
		Action:      models.AuditActionReviewDeleted,
		Description: utils.ToPtr(fmt.Sprintf("review %d", reviewID)),
		Success:     utils.ToPtr(true),
	}, metadata)
	return nil
}

func (f *UserAdminFlowImpl) ReplyToReview(ctx context.Context, reviewID, authorUserID uint, req *dto.ReviewReplyRequest, metadata *ClientMetadata) (*dto.ReviewDTO, error) {
	var reply *models.Review
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		parent, err := f.reviewRepo.ByID(txCtx, reviewID)
		if err != nil {
			return NewBusinessError("REPLY_FAILED", "Failed to load review", err)
		}
		if parent == nil {
			return NewBusinessError("REVIEW_NOT_FOUND", "Review not found", ErrReviewNotFound)
		}

		reply = &models.Review{
			UserID:          authorUserID,
			EstablishmentID: parent.EstablishmentID,
			ParentID:        &parent.ID,
			Comment:         req.Comment,
		}
		if err := f.reviewRepo.Save(txCtx, reply); err != nil {
			return NewBusinessError("REPLY_FAILED", "Failed to save reply", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	writeAudit(ctx, f.auditRepo, &models.AuditLog{
		Action:      models.AuditActionReviewReplied,
		Description: utils.ToPtr(fmt.Sprintf("review %d", reviewID)),
		Success:     utils.ToPtr(true),
	}, metadata)
	out := ToReviewDTO(*reply)
	return &out, nil
}
