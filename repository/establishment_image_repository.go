package repository

import (
	"context"
	"fmt"

	"github.com/meidesaqua/meidesaqua-api/models"
	"gorm.io/gorm"
)

// EstablishmentImageRepositoryImpl implements EstablishmentImageRepository
type EstablishmentImageRepositoryImpl struct {
	*BaseRepository[models.EstablishmentImage, models.EstablishmentImageFilter]
}

func NewEstablishmentImageRepository(db *gorm.DB) EstablishmentImageRepository {
	return &EstablishmentImageRepositoryImpl{BaseRepository: NewBaseRepository[models.EstablishmentImage, models.EstablishmentImageFilter](db)}
}

func (r *EstablishmentImageRepositoryImpl) applyFilter(db *gorm.DB, filter models.EstablishmentImageFilter) *gorm.DB {
	query := db.Model(&models.EstablishmentImage{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.EstablishmentID != nil {
		query = query.Where("establishment_id = ?", *filter.EstablishmentID)
	}
	if len(filter.ImageURLs) > 0 {
		query = query.Where("image_url IN ?", filter.ImageURLs)
	}
	return query
}

func (r *EstablishmentImageRepositoryImpl) ByFilter(ctx context.Context, filter models.EstablishmentImageFilter, orderBy string, limit, offset int) ([]*models.EstablishmentImage, error) {
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
	var rows []*models.EstablishmentImage
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list establishment images: %w", err)
	}
	return rows, nil
}

func (r *EstablishmentImageRepositoryImpl) Count(ctx context.Context, filter models.EstablishmentImageFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count establishment images: %w", err)
	}
	return count, nil
}

func (r *EstablishmentImageRepositoryImpl) ListByEstablishment(ctx context.Context, establishmentID uint) ([]*models.EstablishmentImage, error) {
	db := r.getDB(ctx)
	var rows []*models.EstablishmentImage
	err := db.Where("establishment_id = ?", establishmentID).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images of establishment %d: %w", establishmentID, err)
	}
	return rows, nil
}

func (r *EstablishmentImageRepositoryImpl) DeleteByEstablishment(ctx context.Context, establishmentID uint) error {
	db := r.getDB(ctx)
	err := db.Where("establishment_id = ?", establishmentID).Delete(&models.EstablishmentImage{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete images of establishment %d: %w", establishmentID, err)
	}
	return nil
}

func (r *EstablishmentImageRepositoryImpl) DeleteByURLs(ctx context.Context, establishmentID uint, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	db := r.getDB(ctx)
	err := db.Where("establishment_id = ? AND image_url IN ?", establishmentID, urls).
		Delete(&models.EstablishmentImage{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete images by url of establishment %d: %w", establishmentID, err)
	}
	return nil
}
