package businessflow

import (
	"context"
	"fmt"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	"github.com/meidesaqua/meidesaqua-api/utils"
	"gorm.io/gorm"
)

// CourseFlow manages the training courses section. Courses are created and
// maintained by admins only; the public side just lists them.
type CourseFlow interface {
	List(ctx context.Context) ([]dto.CourseDTO, error)
	Create(ctx context.Context, req *dto.CreateCourseRequest, stagedImage string, metadata *ClientMetadata) (*dto.CourseDTO, error)
	Update(ctx context.Context, id uint, req *dto.UpdateCourseRequest, stagedImage string, metadata *ClientMetadata) (*dto.CourseDTO, error)
	Delete(ctx context.Context, id uint, metadata *ClientMetadata) error
}

// CourseFlowImpl implements CourseFlow
type CourseFlowImpl struct {
	db         *gorm.DB
	courseRepo repository.CourseRepository
	auditRepo  repository.AuditLogRepository
	storage    services.FileStorage
}

func NewCourseFlow(db *gorm.DB, courseRepo repository.CourseRepository, auditRepo repository.AuditLogRepository, storage services.FileStorage) CourseFlow {
	return &CourseFlowImpl{db: db, courseRepo: courseRepo, auditRepo: auditRepo, storage: storage}
}

func (f *CourseFlowImpl) List(ctx context.Context) ([]dto.CourseDTO, error) {
	rows, err := f.courseRepo.ByFilter(ctx, models.CourseFilter{}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_COURSES_FAILED", "Failed to list courses", err)
	}
	out := make([]dto.CourseDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToCourseDTO(*row))
	}
	return out, nil
}

func (f *CourseFlowImpl) Create(ctx context.Context, req *dto.CreateCourseRequest, stagedImage string, metadata *ClientMetadata) (*dto.CourseDTO, error) {
	var imageURL *string
	if stagedImage != "" {
		url, err := f.storage.Relocate(stagedImage, "cursos", req.Name)
		if err != nil {
			return nil, NewBusinessError("UPLOAD_FAILED", "Failed to store course image", err)
		}
		imageURL = &url
	}

	course := &models.Course{
		Name:        req.Name,
		Institution: req.Institution,
		Description: req.Description,
		Modality:    req.Modality,
		Workload:    req.Workload,
		URL:         req.URL,
		ImageURL:    imageURL,
	}
	if err := f.courseRepo.Save(ctx, course); err != nil {
		if imageURL != nil {
			_ = f.storage.DeleteFile(*imageURL)
		}
		return nil, NewBusinessError("CREATE_COURSE_FAILED", "Failed to create course", err)
	}

	f.audit(ctx, models.AuditActionCourseCreated, course.ID, metadata)
	out := ToCourseDTO(*course)
	return &out, nil
}

func (f *CourseFlowImpl) Update(ctx context.Context, id uint, req *dto.UpdateCourseRequest, stagedImage string, metadata *ClientMetadata) (*dto.CourseDTO, error) {
	queue := &sideEffectQueue{}
	var updated *models.Course

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		course, err := f.courseRepo.ByID(txCtx, id)
		if err != nil {
			return NewBusinessError("UPDATE_COURSE_FAILED", "Failed to load course", err)
		}
		if course == nil {
			return NewBusinessError("COURSE_NOT_FOUND", "Course not found", ErrCourseNotFound)
		}

		if req.Name != nil {
			course.Name = *req.Name
		}
		if req.Institution != nil {
			course.Institution = *req.Institution
		}
		if req.Description != nil {
			course.Description = *req.Description
		}
		if req.Modality != nil {
			course.Modality = *req.Modality
		}
		if req.Workload != nil {
			course.Workload = req.Workload
		}
		if req.URL != nil {
			course.URL = req.URL
		}

		if stagedImage != "" {
			url, err := f.storage.Relocate(stagedImage, "cursos", course.Name)
			if err != nil {
				return NewBusinessError("UPLOAD_FAILED", "Failed to store course image", err)
			}
			if course.ImageURL != nil && *course.ImageURL != url {
				oldImage := *course.ImageURL
				queue.add("delete old course image", func() error {
					return f.storage.DeleteFile(oldImage)
				})
			}
			course.ImageURL = &url
		}

		if err := f.courseRepo.Update(txCtx, course); err != nil {
			return NewBusinessError("UPDATE_COURSE_FAILED", "Failed to update course", err)
		}
		updated = course
		return nil
	})
	if err != nil {
		return nil, err
	}

	queue.drain(nil)
	f.audit(ctx, models.AuditActionCourseUpdated, id, metadata)
	out := ToCourseDTO(*updated)
	return &out, nil
}

func (f *CourseFlowImpl) Delete(ctx context.Context, id uint, metadata *ClientMetadata) error {
	queue := &sideEffectQueue{}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		course, err := f.courseRepo.ByID(txCtx, id)
		if err != nil {
			return NewBusinessError("DELETE_COURSE_FAILED", "Failed to load course", err)
		}
		if course == nil {
			return NewBusinessError("COURSE_NOT_FOUND", "Course not found", ErrCourseNotFound)
		}

		name := course.Name
		if err := f.courseRepo.DeleteByID(txCtx, id); err != nil {
			return NewBusinessError("DELETE_COURSE_FAILED", "Failed to delete course", err)
		}
		queue.add("delete course upload tree", func() error {
			return f.storage.DeleteTree("cursos", name)
		})
		return nil
	})
	if err != nil {
		return err
	}

	queue.drain(func(name string, taskErr error) {
		writeAudit(ctx, f.auditRepo, &models.AuditLog{
			Action:       models.AuditActionFileCleanupFailed,
			Description:  utils.ToPtr(name),
			Success:      utils.ToPtr(false),
			ErrorMessage: utils.ToPtr(taskErr.Error()),
		}, metadata)
	})
	f.audit(ctx, models.AuditActionCourseDeleted, id, metadata)
	return nil
}

func (f *CourseFlowImpl) audit(ctx context.Context, action string, courseID uint, metadata *ClientMetadata) {
	writeAudit(ctx, f.auditRepo, &models.AuditLog{
		Action:      action,
		Description: utils.ToPtr(fmt.Sprintf("course %d", courseID)),
		Success:     utils.ToPtr(true),
	}, metadata)
}
