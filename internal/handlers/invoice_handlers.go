package handlers

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"estate_backoffice/internal/middleware"
	"estate_backoffice/internal/services"
)

type InvoiceHandler struct {
	payments *services.PaymentService
	invoices *services.InvoiceService
}

func NewInvoiceHandler(payments *services.PaymentService, invoices *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{payments: payments, invoices: invoices}
}

type resolveRequest struct {
	PaymentReference string `json:"payment_reference"`
}

// Resolve marks an invoice as paid on behalf of an admin
func (h *InvoiceHandler) Resolve(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.PaymentReference == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "payment_reference is required")
	}

	invoice, err := h.payments.ResolveManual(id, req.PaymentReference, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoice)
}

// Undo reverts the most recently paid invoice of an enrollment
func (h *InvoiceHandler) Undo(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.invoices.UndoPaid(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoice)
}

// Checkout opens a hosted checkout session for an invoice and returns the
// payment link
func (h *InvoiceHandler) Checkout(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	forceNew := c.QueryParam("force_new") == "true"
	callbackURL := getEnv("APP_URL", "http://localhost:8080") + "/p"

	result, err := h.payments.InitiateCheckout(id, forceNew, callbackURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
