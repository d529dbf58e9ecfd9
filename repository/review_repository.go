package repository

import (
	"context"
	"fmt"

	"github.com/meidesaqua/meidesaqua-api/models"
	"gorm.io/gorm"
)

// ReviewRepositoryImpl implements ReviewRepository
type ReviewRepositoryImpl struct {
	*BaseRepository[models.Review, models.ReviewFilter]
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &ReviewRepositoryImpl{BaseRepository: NewBaseRepository[models.Review, models.ReviewFilter](db)}
}

func (r *ReviewRepositoryImpl) applyFilter(db *gorm.DB, filter models.ReviewFilter) *gorm.DB {
	query := db.Model(&models.Review{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EstablishmentID != nil {
		query = query.Where("establishment_id = ?", *filter.EstablishmentID)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.TopLevelOnly {
		query = query.Where("parent_id IS NULL")
	}
	return query
}

func (r *ReviewRepositoryImpl) ByFilter(ctx context.Context, filter models.ReviewFilter, orderBy string, limit, offset int) ([]*models.Review, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db, filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Review
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return rows, nil
}

func (r *ReviewRepositoryImpl) Count(ctx context.Context, filter models.ReviewFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

func (r *ReviewRepositoryImpl) ListByEstablishment(ctx context.Context, establishmentID uint) ([]*models.Review, error) {
	db := r.getDB(ctx)
	var rows []*models.Review
	err := db.Preload("User").Preload("Replies").
		Where("establishment_id = ? AND parent_id IS NULL", establishmentID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of establishment %d: %w", establishmentID, err)
	}
	return rows, nil
}

func (r *ReviewRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.Review, error) {
	db := r.getDB(ctx)
	var rows []*models.Review
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of user %d: %w", userID, err)
	}
	return rows, nil
}

// DeleteThread removes a review together with its replies.
func (r *ReviewRepositoryImpl) DeleteThread(ctx context.Context, reviewID uint) error {
	db := r.getDB(ctx)
	if err := db.Where("parent_id = ?", reviewID).Delete(&models.Review{}).Error; err != nil {
		return fmt.Errorf("failed to delete replies of review %d: %w", reviewID, err)
	}
	if err := db.Delete(&models.Review{}, reviewID).Error; err != nil {
		return fmt.Errorf("failed to delete review %d: %w", reviewID, err)
	}
	return nil
}
