// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/meidesaqua/meidesaqua-api/app/dto"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
)

// DashboardHandlerInterface defines the contract for the admin dashboard endpoints
type DashboardHandlerInterface interface {
	Stats(c fiber.Ctx) error
	ExportCounters(c fiber.Ctx) error
}

// DashboardHandler implements DashboardHandlerInterface
type DashboardHandler struct {
	flow businessflow.DashboardFlow
}

func NewDashboardHandler(flow businessflow.DashboardFlow) DashboardHandlerInterface {
	return &DashboardHandler{flow: flow}
}

func (h *DashboardHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DashboardHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Stats returns the dashboard aggregates
// @Summary Dashboard stats
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardStats} "Dashboard stats"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/dashboard/stats [get]
func (h *DashboardHandler) Stats(c fiber.Ctx) error {
	result, err := h.flow.Stats(requestContext(c, "/api/v1/admin/dashboard/stats"))
	if err != nil {
		log.Println("Dashboard stats failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Dashboard stats failed", "DASHBOARD_STATS_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Dashboard stats", result)
}

// ExportCounters downloads the view counters as CSV or XLSX
// @Summary Export view counters
// @Description Download the counters report; format=csv (default) or format=xlsx
// @Tags Dashboard
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file "Counters report"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/dashboard/counters/export [get]
func (h *DashboardHandler) ExportCounters(c fiber.Ctx) error {
	ctx := requestContext(c, "/api/v1/admin/dashboard/counters/export")

	var filename string
	var data []byte
	var err error
	var contentType string

	switch c.Query("format", "csv") {
	case "xlsx":
		filename, data, err = h.flow.ExportCountersXLSX(ctx)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		filename, data, err = h.flow.ExportCountersCSV(ctx)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		log.Println("Counters export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Counters export failed", "EXPORT_COUNTERS_FAILED", nil)
	}

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
