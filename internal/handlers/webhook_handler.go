package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"estate_backoffice/internal/services"
)

type WebhookHandler struct {
	payments *services.PaymentService
}

func NewWebhookHandler(payments *services.PaymentService) *WebhookHandler {
	return &WebhookHandler{payments: payments}
}

// HandlePaystack ingests provider payment notifications. The signature is
// verified over the raw body bytes before anything is parsed.
func (h *WebhookHandler) HandlePaystack(c echo.Context) error {
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read body")
	}

	signature := c.Request().Header.Get("x-paystack-signature")

	result, err := h.payments.HandleNotification(rawBody, signature)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			// Fail closed, but don't surface a server error the provider
			// would mistake for its own fault.
			c.Logger().Warnf("Webhook signature mismatch from %s", c.RealIP())
			return c.JSON(http.StatusUnauthorized, map[string]string{"status": "invalid signature"})
		}
		return err
	}

	return c.JSON(http.StatusOK, result)
}
