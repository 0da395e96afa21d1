package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"estate_backoffice/internal/models"
	"estate_backoffice/internal/services"
)

type EnrollmentHandler struct {
	enrollments *services.EnrollmentService
}

func NewEnrollmentHandler(enrollments *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Create establishes an enrollment and its installment schedule
func (h *EnrollmentHandler) Create(c echo.Context) error {
	var input services.CreateEnrollmentInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	enrollment, err := h.enrollments.Create(input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, enrollment)
}

// Get returns an enrollment with its invoices in installment order
func (h *EnrollmentHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	enrollment, err := h.enrollments.Get(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollment)
}

// List returns enrollments, optionally filtered by status
func (h *EnrollmentHandler) List(c echo.Context) error {
	var status *models.EnrollmentStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := models.EnrollmentStatus(raw)
		status = &s
	}

	limit, offset := pagination(c)
	enrollments, total, err := h.enrollments.List(status, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"enrollments": enrollments,
		"total":       total,
	})
}
