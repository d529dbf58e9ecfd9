package repository

import (
	"context"
	"fmt"

	"github.com/meidesaqua/meidesaqua-api/models"
	"gorm.io/gorm"
)

// CourseRepositoryImpl implements CourseRepository
type CourseRepositoryImpl struct {
	*BaseRepository[models.Course, models.CourseFilter]
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &CourseRepositoryImpl{BaseRepository: NewBaseRepository[models.Course, models.CourseFilter](db)}
}

func (r *CourseRepositoryImpl) applyFilter(db *gorm.DB, filter models.CourseFilter) *gorm.DB {
	query := db.Model(&models.Course{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Institution != nil {
		query = query.Where("institution = ?", *filter.Institution)
	}
	if filter.Modality != nil {
		query = query.Where("modality = ?", *filter.Modality)
	}
	return query
}

func (r *CourseRepositoryImpl) ByFilter(ctx context.Context, filter models.CourseFilter, orderBy string, limit, offset int) ([]*models.Course, error) {
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
	var rows []*models.Course
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return rows, nil
}

func (r *CourseRepositoryImpl) Count(ctx context.Context, filter models.CourseFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}
