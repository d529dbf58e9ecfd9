// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/meidesaqua/meidesaqua-api/app/dto"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
)

// UserAdminHandlerInterface defines the contract for the admin user and review endpoints
type UserAdminHandlerInterface interface {
	ListUsers(c fiber.Ctx) error
	GetUser(c fiber.Ctx) error
	ListEstablishmentReviews(c fiber.Ctx) error
	DeleteReview(c fiber.Ctx) error
	ReplyToReview(c fiber.Ctx) error
}

// UserAdminHandler implements UserAdminHandlerInterface. Replies are posted
// under the portal's official account.
type UserAdminHandler struct {
	flow           businessflow.UserAdminFlow
	officialUserID uint
	validator      *validator.Validate
}

func NewUserAdminHandler(flow businessflow.UserAdminFlow, officialUserID uint) UserAdminHandlerInterface {
	return &UserAdminHandler{
		flow:           flow,
		officialUserID: officialUserID,
		validator:      validator.New(),
	}
}

func (h *UserAdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *UserAdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListUsers returns all platform users
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserDTO} "Users"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/users [get]
func (h *UserAdminHandler) ListUsers(c fiber.Ctx) error {
	result, err := h.flow.ListUsers(requestContext(c, "/api/v1/admin/users"))
	if err != nil {
		log.Println("Listing users failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Listing failed", "LIST_USERS_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Users", result)
}

// GetUser returns one user
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserDTO} "User"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/users/{id} [get]
func (h *UserAdminHandler) GetUser(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", "INVALID_REQUEST", nil)
	}

	result, err := h.flow.GetUser(requestContext(c, "/api/v1/admin/users/:id"), uint(id))
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}
		log.Println("Fetching user failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Fetch failed", "GET_USER_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "User", result)
}

// ListEstablishmentReviews returns the review threads of an establishment
// @Summary List establishment reviews
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ReviewDTO} "Reviews"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/establishments/{id}/reviews [get]
func (h *UserAdminHandler) ListEstablishmentReviews(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid establishment ID", "INVALID_REQUEST", nil)
	}

	result, err := h.flow.ListEstablishmentReviews(requestContext(c, "/api/v1/admin/establishments/:id/reviews"), uint(id))
	if err != nil {
		log.Println("Listing reviews failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Listing failed", "LIST_REVIEWS_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Reviews", result)
}

// DeleteReview removes a review and its reply thread
// @Summary Delete review
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} dto.APIResponse "Review deleted"
// @Failure 404 {object} dto.APIResponse "Review not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/reviews/{id} [delete]
func (h *UserAdminHandler) DeleteReview(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid review ID", "INVALID_REQUEST", nil)
	}

	if err := h.flow.DeleteReview(requestContext(c, "/api/v1/admin/reviews/:id"), uint(id), clientMetadata(c)); err != nil {
		if businessflow.IsReviewNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Review not found", "REVIEW_NOT_FOUND", nil)
		}
		log.Println("Review deletion failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Review deletion failed", "DELETE_REVIEW_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Review deleted", nil)
}

// ReplyToReview posts an official reply under a review
// @Summary Reply to review
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body dto.ReviewReplyRequest true "Reply"
// @Success 201 {object} dto.APIResponse{data=dto.ReviewDTO} "Reply posted"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 404 {object} dto.APIResponse "Review not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/reviews/{id}/reply [post]
func (h *UserAdminHandler) ReplyToReview(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid review ID", "INVALID_REQUEST", nil)
	}

	var req dto.ReviewReplyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.flow.ReplyToReview(requestContext(c, "/api/v1/admin/reviews/:id/reply"), uint(id), h.officialUserID, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsReviewNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Review not found", "REVIEW_NOT_FOUND", nil)
		}
		log.Println("Review reply failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Review reply failed", "REPLY_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Reply posted", result)
}
