// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"io"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
	"github.com/meidesaqua/meidesaqua-api/utils"
)

// CourseHandlerInterface defines the contract for the course endpoints
type CourseHandlerInterface interface {
	List(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

// CourseHandler implements CourseHandlerInterface
type CourseHandler struct {
	flow      businessflow.CourseFlow
	storage   services.FileStorage
	validator *validator.Validate
}

func NewCourseHandler(flow businessflow.CourseFlow, storage services.FileStorage) CourseHandlerInterface {
	return &CourseHandler{
		flow:      flow,
		storage:   storage,
		validator: validator.New(),
	}
}

func (h *CourseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CourseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List returns all courses
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.CourseDTO} "Courses"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/courses [get]
func (h *CourseHandler) List(c fiber.Ctx) error {
	result, err := h.flow.List(requestContext(c, "/api/v1/courses"))
	if err != nil {
		log.Println("Listing courses failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Listing failed", "LIST_COURSES_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Courses", result)
}

// Create adds a new course
// @Summary Create course
// @Tags Courses
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file false "Course image"
// @Success 201 {object} dto.APIResponse{data=dto.CourseDTO} "Course created"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/courses [post]
func (h *CourseHandler) Create(c fiber.Ctx) error {
	var req dto.CreateCourseRequest
	if err := c.Bind().Form(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	staged, err := h.stageCourseImage(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid uploaded file", "INVALID_FILE", err.Error())
	}

	result, err := h.flow.Create(requestContext(c, "/api/v1/admin/courses"), &req, staged, clientMetadata(c))
	if err != nil {
		h.storage.DiscardStaged(staged)
		log.Println("Course creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Course creation failed", "CREATE_COURSE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Course created", result)
}

// Update edits an existing course
// @Summary Update course
// @Tags Courses
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param image formData file false "Course image"
// @Success 200 {object} dto.APIResponse{data=dto.CourseDTO} "Course updated"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 404 {object} dto.APIResponse "Course not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/courses/{id} [put]
func (h *CourseHandler) Update(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid course ID", "INVALID_REQUEST", nil)
	}

	var req dto.UpdateCourseRequest
	if err := c.Bind().Form(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	staged, err := h.stageCourseImage(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid uploaded file", "INVALID_FILE", err.Error())
	}

	result, err := h.flow.Update(requestContext(c, "/api/v1/admin/courses/:id"), uint(id), &req, staged, clientMetadata(c))
	if err != nil {
		h.storage.DiscardStaged(staged)
		if businessflow.IsCourseNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Course not found", "COURSE_NOT_FOUND", nil)
		}
		log.Println("Course update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Course update failed", "UPDATE_COURSE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Course updated", result)
}

// Delete removes a course
// @Summary Delete course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse "Course deleted"
// @Failure 404 {object} dto.APIResponse "Course not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/courses/{id} [delete]
func (h *CourseHandler) Delete(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid course ID", "INVALID_REQUEST", nil)
	}

	if err := h.flow.Delete(requestContext(c, "/api/v1/admin/courses/:id"), uint(id), clientMetadata(c)); err != nil {
		if businessflow.IsCourseNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Course not found", "COURSE_NOT_FOUND", nil)
		}
		log.Println("Course deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Course deletion failed", "DELETE_COURSE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Course deleted", nil)
}

func (h *CourseHandler) stageCourseImage(c fiber.Ctx) (string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil || fileHeader == nil {
		return "", nil
	}
	if fileHeader.Size > utils.MaxPortfolioImageSizeBytes {
		return "", fiber.NewError(fiber.StatusBadRequest, "file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := services.ValidateImage(file); err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return h.storage.Stage(file, fileHeader.Filename)
}
