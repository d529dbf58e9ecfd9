// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/middleware"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
)

// CounterHandlerInterface defines the contract for the view counter endpoints
type CounterHandlerInterface interface {
	RecordHit(c fiber.Ctx) error
	ListCounters(c fiber.Ctx) error
}

// CounterHandler implements CounterHandlerInterface
type CounterHandler struct {
	flow businessflow.ViewCounterFlow
}

func NewCounterHandler(flow businessflow.ViewCounterFlow) CounterHandlerInterface {
	return &CounterHandler{flow: flow}
}

func (h *CounterHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CounterHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RecordHit increments the view counter named in the path
// @Summary Record page hit
// @Description Increment a view counter; the identifier is normalized server-side
// @Tags Counters
// @Produce json
// @Param identifier path string true "Counter identifier or category label"
// @Success 200 {object} dto.APIResponse "Hit recorded"
// @Failure 400 {object} dto.APIResponse "Identifier is required"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/counters/{identifier}/hit [post]
func (h *CounterHandler) RecordHit(c fiber.Ctx) error {
	identifier, err := h.flow.RecordHit(requestContext(c, "/api/v1/counters/:identifier/hit"), c.Params("identifier"))
	if err != nil {
		if businessflow.IsIdentifierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Identifier is required", "IDENTIFIER_REQUIRED", nil)
		}
		log.Println("Recording hit failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Recording hit failed", "RECORD_HIT_FAILED", nil)
	}
	middleware.RecordCounterHit()
	return h.SuccessResponse(c, fiber.StatusOK, "Hit recorded", fiber.Map{"identifier": identifier})
}

// ListCounters returns every view counter row
// @Summary List view counters
// @Description List all counters with their current totals
// @Tags Counters
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.CounterDTO} "Counters"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/dashboard/counters [get]
func (h *CounterHandler) ListCounters(c fiber.Ctx) error {
	counters, err := h.flow.ListCounters(requestContext(c, "/api/v1/admin/dashboard/counters"))
	if err != nil {
		log.Println("Listing counters failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Listing counters failed", "LIST_COUNTERS_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Counters retrieved", counters)
}
