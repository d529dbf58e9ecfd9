// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/meidesaqua/meidesaqua-api/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	DeleteByID(ctx context.Context, id uint) error
	Count(ctx context.Context, filter F) (int64, error)
}

// EstablishmentRepository defines operations for business listings
type EstablishmentRepository interface {
	Repository[models.Establishment, models.EstablishmentFilter]
	ByIDWithImages(ctx context.Context, id uint) (*models.Establishment, error)
	ByCNPJ(ctx context.Context, cnpj string) (*models.Establishment, error)
	ByEmail(ctx context.Context, email string) (*models.Establishment, error)
	ListActive(ctx context.Context) ([]*models.Establishment, error)
	ListPending(ctx context.Context) ([]*models.Establishment, error)
}

// EstablishmentImageRepository defines operations for portfolio images
type EstablishmentImageRepository interface {
	Repository[models.EstablishmentImage, models.EstablishmentImageFilter]
	ListByEstablishment(ctx context.Context, establishmentID uint) ([]*models.EstablishmentImage, error)
	DeleteByEstablishment(ctx context.Context, establishmentID uint) error
	DeleteByURLs(ctx context.Context, establishmentID uint, urls []string) error
}

// ViewCounterRepository defines operations for view counters
type ViewCounterRepository interface {
	Repository[models.ViewCounter, models.ViewCounterFilter]
	IncrementHit(ctx context.Context, identifier string) error
	ByIdentifier(ctx context.Context, identifier string) (*models.ViewCounter, error)
	ListAll(ctx context.Context) ([]*models.ViewCounter, error)
}

// CourseRepository defines operations for courses
type CourseRepository interface {
	Repository[models.Course, models.CourseFilter]
}

// UserRepository defines operations for platform users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

// ReviewRepository defines operations for reviews and threaded replies
type ReviewRepository interface {
	Repository[models.Review, models.ReviewFilter]
	ListByEstablishment(ctx context.Context, establishmentID uint) ([]*models.Review, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Review, error)
	DeleteThread(ctx context.Context, reviewID uint) error
}

// AdminRepository defines operations for admins
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, adminID uint, at time.Time) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
}
