// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"io"
	"log"
	"mime/multipart"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
	"github.com/meidesaqua/meidesaqua-api/utils"
)

// EstablishmentHandlerInterface defines the contract for the public establishment endpoints
type EstablishmentHandlerInterface interface {
	Register(c fiber.Ctx) error
	RequestUpdate(c fiber.Ctx) error
	RequestDeletion(c fiber.Ctx) error
	List(c fiber.Ctx) error
	GetByID(c fiber.Ctx) error
}

// EstablishmentHandler implements EstablishmentHandlerInterface
type EstablishmentHandler struct {
	flow      businessflow.EstablishmentFlow
	storage   services.FileStorage
	validator *validator.Validate
}

func NewEstablishmentHandler(flow businessflow.EstablishmentFlow, storage services.FileStorage) EstablishmentHandlerInterface {
	return &EstablishmentHandler{
		flow:      flow,
		storage:   storage,
		validator: validator.New(),
	}
}

func (h *EstablishmentHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *EstablishmentHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Register creates a new establishment pending approval
// @Summary Register establishment
// @Description Register a new establishment with optional logo and portfolio images (multipart form)
// @Tags Establishments
// @Accept mpfd
// @Produce json
// @Param logo formData file false "Logo image (jpg/png/gif/webp, <=5MB)"
// @Param images formData file false "Portfolio images (up to 12)"
// @Success 201 {object} dto.APIResponse{data=dto.EstablishmentDTO} "Registration submitted"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 409 {object} dto.APIResponse "CNPJ or email already registered"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/establishments [post]
func (h *EstablishmentHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterEstablishmentRequest
	if err := c.Bind().Form(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	uploads, err := h.stageUploads(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid uploaded file", "INVALID_FILE", err.Error())
	}

	result, err := h.flow.Register(requestContext(c, "/api/v1/establishments"), &req, uploads, clientMetadata(c))
	if err != nil {
		h.discardStaged(uploads)
		if businessflow.IsCNPJAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "CNPJ already registered", "CNPJ_ALREADY_EXISTS", nil)
		}
		if businessflow.IsEmailAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Email already registered", "EMAIL_ALREADY_EXISTS", nil)
		}
		log.Println("Establishment registration failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Registration failed", "REGISTER_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Registration submitted for approval", result)
}

// RequestUpdate stages an update for an active establishment
// @Summary Request establishment update
// @Description Stage changes for an active establishment, to be applied after moderation
// @Tags Establishments
// @Accept mpfd
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.EstablishmentDTO} "Update submitted"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 404 {object} dto.APIResponse "Establishment not found"
// @Failure 409 {object} dto.APIResponse "A request is already pending"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/establishments/update-request [post]
func (h *EstablishmentHandler) RequestUpdate(c fiber.Ctx) error {
	var req dto.UpdateEstablishmentRequest
	if err := c.Bind().Form(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	uploads, err := h.stageUploads(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid uploaded file", "INVALID_FILE", err.Error())
	}

	result, err := h.flow.RequestUpdate(requestContext(c, "/api/v1/establishments/update-request"), &req, uploads, clientMetadata(c))
	if err != nil {
		h.discardStaged(uploads)
		if businessflow.IsEstablishmentNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", "ESTABLISHMENT_NOT_FOUND", nil)
		}
		if businessflow.IsRequestAlreadyPending(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A request is already pending", "REQUEST_ALREADY_PENDING", nil)
		}
		log.Println("Establishment update request failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Update request failed", "UPDATE_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Update submitted for approval", result)
}

// RequestDeletion stages removal of an active establishment
// @Summary Request establishment deletion
// @Description Ask for removal of an active establishment, applied after moderation
// @Tags Establishments
// @Accept json
// @Produce json
// @Param request body dto.DeletionRequest true "Deletion request"
// @Success 200 {object} dto.APIResponse "Deletion submitted"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 403 {object} dto.APIResponse "Email does not match records"
// @Failure 404 {object} dto.APIResponse "Establishment not found"
// @Failure 409 {object} dto.APIResponse "A request is already pending"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/establishments/deletion-request [post]
func (h *EstablishmentHandler) RequestDeletion(c fiber.Ctx) error {
	var req dto.DeletionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	err := h.flow.RequestDeletion(requestContext(c, "/api/v1/establishments/deletion-request"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsEstablishmentNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", "ESTABLISHMENT_NOT_FOUND", nil)
		}
		if businessflow.IsOwnershipMismatch(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Email does not match records", "OWNERSHIP_MISMATCH", nil)
		}
		if businessflow.IsRequestAlreadyPending(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A request is already pending", "REQUEST_ALREADY_PENDING", nil)
		}
		log.Println("Establishment deletion request failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Deletion request failed", "DELETION_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Deletion submitted for approval", nil)
}

// List returns all active establishments
// @Summary List active establishments
// @Tags Establishments
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.EstablishmentDTO} "Active establishments"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/establishments [get]
func (h *EstablishmentHandler) List(c fiber.Ctx) error {
	result, err := h.flow.ListActive(requestContext(c, "/api/v1/establishments"))
	if err != nil {
		log.Println("Listing establishments failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Listing failed", "LIST_ACTIVE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Active establishments", result)
}

// GetByID returns one active establishment
// @Summary Get establishment
// @Tags Establishments
// @Produce json
// @Param id path int true "Establishment ID"
// @Success 200 {object} dto.APIResponse{data=dto.EstablishmentDTO} "Establishment"
// @Failure 404 {object} dto.APIResponse "Establishment not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/establishments/{id} [get]
func (h *EstablishmentHandler) GetByID(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid establishment ID", "INVALID_REQUEST", nil)
	}

	result, err := h.flow.GetByID(requestContext(c, "/api/v1/establishments/:id"), uint(id))
	if err != nil {
		if businessflow.IsEstablishmentNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", "ESTABLISHMENT_NOT_FOUND", nil)
		}
		log.Println("Fetching establishment failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Fetch failed", "GET_ESTABLISHMENT_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Establishment", result)
}

// stageUploads validates and stages the optional logo and portfolio files.
func (h *EstablishmentHandler) stageUploads(c fiber.Ctx) (businessflow.StagedUploads, error) {
	var uploads businessflow.StagedUploads

	if logoHeader, err := c.FormFile("logo"); err == nil && logoHeader != nil {
		staged, err := h.stageImage(logoHeader, utils.MaxLogoSizeBytes)
		if err != nil {
			return uploads, err
		}
		uploads.Logo = staged
	}

	form, err := c.MultipartForm()
	if err != nil {
		return uploads, nil
	}
	files := form.File["images"]
	if len(files) > utils.MaxPortfolioImages {
		h.discardStaged(uploads)
		return businessflow.StagedUploads{}, fiber.NewError(fiber.StatusBadRequest, "too many portfolio images")
	}
	for _, fileHeader := range files {
		staged, err := h.stageImage(fileHeader, utils.MaxPortfolioImageSizeBytes)
		if err != nil {
			h.discardStaged(uploads)
			return businessflow.StagedUploads{}, err
		}
		uploads.Images = append(uploads.Images, staged)
	}
	return uploads, nil
}

func (h *EstablishmentHandler) stageImage(fileHeader *multipart.FileHeader, maxSize int64) (string, error) {
	if fileHeader.Size > maxSize {
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

func (h *EstablishmentHandler) discardStaged(uploads businessflow.StagedUploads) {
	h.storage.DiscardStaged(uploads.Logo)
	for _, staged := range uploads.Images {
		h.storage.DiscardStaged(staged)
	}
}
