package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"estate_backoffice/internal/services"
)

// PublicHandler serves the unauthenticated payment-link endpoints.
type PublicHandler struct {
	payments *services.PaymentService
}

func NewPublicHandler(payments *services.PaymentService) *PublicHandler {
	return &PublicHandler{payments: payments}
}

// ShowLink resolves a payment link token to its invoice summary
func (h *PublicHandler) ShowLink(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payment link token")
	}

	summary, err := h.payments.ResolveLink(token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// Checkout reopens the hosted checkout session behind a payment link
func (h *PublicHandler) Checkout(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payment link token")
	}

	callbackURL := getEnv("APP_URL", "http://localhost:8080") + "/p"
	result, err := h.payments.CheckoutFromLink(token, callbackURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// CheckStatus re-verifies the link's transaction with the provider and
// returns the invoice's current status
func (h *PublicHandler) CheckStatus(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payment link token")
	}

	status, err := h.payments.SyncLinkStatus(token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": status,
	})
}
