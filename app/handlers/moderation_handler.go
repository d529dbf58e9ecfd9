// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/middleware"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
)

// ModerationHandlerInterface defines the contract for the admin moderation endpoints
type ModerationHandlerInterface interface {
	ListPending(c fiber.Ctx) error
	Approve(c fiber.Ctx) error
	EditAndApprove(c fiber.Ctx) error
	DirectUpdate(c fiber.Ctx) error
	Reject(c fiber.Ctx) error
}

// ModerationHandler implements ModerationHandlerInterface
type ModerationHandler struct {
	flow      businessflow.ModerationFlow
	validator *validator.Validate
}

func NewModerationHandler(flow businessflow.ModerationFlow) ModerationHandlerInterface {
	return &ModerationHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *ModerationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ModerationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListPending returns establishments waiting for moderation
// @Summary List pending establishments
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.EstablishmentDTO} "Pending establishments"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/establishments/pending [get]
func (h *ModerationHandler) ListPending(c fiber.Ctx) error {
	result, err := h.flow.ListPending(requestContext(c, "/api/v1/admin/establishments/pending"))
	if err != nil {
		log.Println("Listing pending establishments failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Listing failed", "LIST_PENDING_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Pending establishments", result)
}

// Approve applies the pending request of an establishment as-is
// @Summary Approve pending request
// @Description Activate a signup, apply a staged update, or execute a staged deletion
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Success 200 {object} dto.APIResponse{data=dto.ModerationResult} "Approved"
// @Failure 404 {object} dto.APIResponse "Establishment not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/establishments/{id}/approve [post]
func (h *ModerationHandler) Approve(c fiber.Ctx) error {
	id, ok := h.parseID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid establishment ID", "INVALID_REQUEST", nil)
	}

	result, err := h.flow.Approve(requestContext(c, "/api/v1/admin/establishments/:id/approve"), id, clientMetadata(c))
	middleware.RecordModerationDecision("approve", err == nil)
	if err != nil {
		return h.moderationError(c, err, "Approval failed", "APPROVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// EditAndApprove applies admin edits on top of the pending request and activates
// @Summary Edit and approve
// @Tags Moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param request body dto.EstablishmentEditRequest true "Admin overrides"
// @Success 200 {object} dto.APIResponse{data=dto.ModerationResult} "Approved with edits"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 404 {object} dto.APIResponse "Establishment not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/establishments/{id}/approve [put]
func (h *ModerationHandler) EditAndApprove(c fiber.Ctx) error {
	id, ok := h.parseID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid establishment ID", "INVALID_REQUEST", nil)
	}

	var req dto.EstablishmentEditRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.flow.EditAndApprove(requestContext(c, "/api/v1/admin/establishments/:id/approve"), id, &req, clientMetadata(c))
	middleware.RecordModerationDecision("edit_approve", err == nil)
	if err != nil {
		return h.moderationError(c, err, "Edit and approve failed", "EDIT_APPROVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// DirectUpdate edits an establishment regardless of its moderation state
// @Summary Admin direct update
// @Description Edit any establishment; pending records are activated and notified, active records are edited silently
// @Tags Moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param request body dto.EstablishmentEditRequest true "Admin overrides"
// @Success 200 {object} dto.APIResponse{data=dto.ModerationResult} "Updated"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 404 {object} dto.APIResponse "Establishment not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/establishments/{id} [put]
func (h *ModerationHandler) DirectUpdate(c fiber.Ctx) error {
	id, ok := h.parseID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid establishment ID", "INVALID_REQUEST", nil)
	}

	var req dto.EstablishmentEditRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.flow.AdminDirectUpdate(requestContext(c, "/api/v1/admin/establishments/:id"), id, &req, clientMetadata(c))
	middleware.RecordModerationDecision("direct_update", err == nil)
	if err != nil {
		return h.moderationError(c, err, "Direct update failed", "DIRECT_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Reject declines the pending request of an establishment
// @Summary Reject pending request
// @Description Delete a rejected signup, or revert a staged update/deletion keeping the listing active
// @Tags Moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param request body dto.RejectRequest false "Optional reason sent to the owner"
// @Success 200 {object} dto.APIResponse{data=dto.ModerationResult} "Rejected"
// @Failure 400 {object} dto.APIResponse "Establishment is not pending"
// @Failure 404 {object} dto.APIResponse "Establishment not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/establishments/{id}/reject [post]
func (h *ModerationHandler) Reject(c fiber.Ctx) error {
	id, ok := h.parseID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid establishment ID", "INVALID_REQUEST", nil)
	}

	var req dto.RejectRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if err := h.validator.Struct(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
		}
	}

	result, err := h.flow.Reject(requestContext(c, "/api/v1/admin/establishments/:id/reject"), id, req.Reason, clientMetadata(c))
	middleware.RecordModerationDecision("reject", err == nil)
	if err != nil {
		return h.moderationError(c, err, "Rejection failed", "REJECT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *ModerationHandler) parseID(c fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *ModerationHandler) moderationError(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsEstablishmentNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", "ESTABLISHMENT_NOT_FOUND", nil)
	}
	if businessflow.IsNotPending(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Establishment is not in a pending state", "INVALID_TRANSITION", nil)
	}
	if businessErr, ok := err.(*businessflow.BusinessError); ok && businessErr.Code == "VALIDATION_ERROR" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, businessErr.Message, businessErr.Code, nil)
	}
	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}
