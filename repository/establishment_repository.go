package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/meidesaqua/meidesaqua-api/models"
	"gorm.io/gorm"
)

// EstablishmentRepositoryImpl implements EstablishmentRepository
type EstablishmentRepositoryImpl struct {
	*BaseRepository[models.Establishment, models.EstablishmentFilter]
}

func NewEstablishmentRepository(db *gorm.DB) EstablishmentRepository {
	return &EstablishmentRepositoryImpl{BaseRepository: NewBaseRepository[models.Establishment, models.EstablishmentFilter](db)}
}

func (r *EstablishmentRepositoryImpl) applyFilter(db *gorm.DB, filter models.EstablishmentFilter) *gorm.DB {
	query := db.Model(&models.Establishment{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.CNPJ != nil {
		query = query.Where("cnpj = ?", *filter.CNPJ)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	return query
}

func (r *EstablishmentRepositoryImpl) ByFilter(ctx context.Context, filter models.EstablishmentFilter, orderBy string, limit, offset int) ([]*models.Establishment, error) {
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
	var rows []*models.Establishment
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list establishments: %w", err)
	}
	return rows, nil
}

func (r *EstablishmentRepositoryImpl) Count(ctx context.Context, filter models.EstablishmentFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count establishments: %w", err)
	}
	return count, nil
}

// ByIDWithImages loads an establishment together with its portfolio images.
func (r *EstablishmentRepositoryImpl) ByIDWithImages(ctx context.Context, id uint) (*models.Establishment, error) {
	db := r.getDB(ctx)
	var row models.Establishment
	err := db.Preload("Images").First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find establishment %d: %w", id, err)
	}
	return &row, nil
}

func (r *EstablishmentRepositoryImpl) ByCNPJ(ctx context.Context, cnpj string) (*models.Establishment, error) {
	db := r.getDB(ctx)
	var row models.Establishment
	err := db.Where("cnpj = ?", cnpj).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find establishment by cnpj: %w", err)
	}
	return &row, nil
}

func (r *EstablishmentRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Establishment, error) {
	db := r.getDB(ctx)
	var row models.Establishment
	err := db.Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find establishment by email: %w", err)
	}
	return &row, nil
}

func (r *EstablishmentRepositoryImpl) ListActive(ctx context.Context) ([]*models.Establishment, error) {
	db := r.getDB(ctx)
	var rows []*models.Establishment
	// Visibility follows the active flag alone. A listing with a pending
	// update or deletion request stays public until moderation decides.
	err := db.Preload("Images").
		Where("active = ?", true).
		Order("trade_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active establishments: %w", err)
	}
	return rows, nil
}

func (r *EstablishmentRepositoryImpl) ListPending(ctx context.Context) ([]*models.Establishment, error) {
	db := r.getDB(ctx)
	var rows []*models.Establishment
	err := db.Preload("Images").
		Where("status IN ?", models.PendingStatuses).
		Order("updated_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending establishments: %w", err)
	}
	return rows, nil
}
