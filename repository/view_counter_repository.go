package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/meidesaqua/meidesaqua-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewCounterRepositoryImpl implements ViewCounterRepository
type ViewCounterRepositoryImpl struct {
	*BaseRepository[models.ViewCounter, models.ViewCounterFilter]
}

func NewViewCounterRepository(db *gorm.DB) ViewCounterRepository {
	return &ViewCounterRepositoryImpl{BaseRepository: NewBaseRepository[models.ViewCounter, models.ViewCounterFilter](db)}
}

func (r *ViewCounterRepositoryImpl) applyFilter(db *gorm.DB, filter models.ViewCounterFilter) *gorm.DB {
	query := db.Model(&models.ViewCounter{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Identifier != nil {
		query = query.Where("identifier = ?", *filter.Identifier)
	}
	return query
}

func (r *ViewCounterRepositoryImpl) ByFilter(ctx context.Context, filter models.ViewCounterFilter, orderBy string, limit, offset int) ([]*models.ViewCounter, error) {
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
	var rows []*models.ViewCounter
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list view counters: %w", err)
	}
	return rows, nil
}

func (r *ViewCounterRepositoryImpl) Count(ctx context.Context, filter models.ViewCounterFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count view counters: %w", err)
	}
	return count, nil
}

// IncrementHit upserts the counter row and bumps its count atomically.
// A concurrent insert of the same identifier resolves through the conflict
// clause instead of surfacing a duplicate-key error.
func (r *ViewCounterRepositoryImpl) IncrementHit(ctx context.Context, identifier string) error {
	db := r.getDB(ctx)
	row := models.ViewCounter{Identifier: identifier, Count: 1}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identifier"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("view_counters.count + 1"),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to increment counter %s: %w", identifier, err)
	}
	return nil
}

func (r *ViewCounterRepositoryImpl) ByIdentifier(ctx context.Context, identifier string) (*models.ViewCounter, error) {
	db := r.getDB(ctx)
	var row models.ViewCounter
	err := db.Where("identifier = ?", identifier).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find counter %s: %w", identifier, err)
	}
	return &row, nil
}

func (r *ViewCounterRepositoryImpl) ListAll(ctx context.Context) ([]*models.ViewCounter, error) {
	db := r.getDB(ctx)
	var rows []*models.ViewCounter
	if err := db.Order("identifier ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list view counters: %w", err)
	}
	return rows, nil
}
