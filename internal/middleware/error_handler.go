package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"estate_backoffice/internal/services"
)

// statusFor maps service sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrRecipientNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrNotPaid),
		errors.Is(err, services.ErrOutOfOrder),
		errors.Is(err, services.ErrNotMostRecent),
		errors.Is(err, services.ErrInvoiceCancelled),
		errors.Is(err, services.ErrAlreadyDisbursed),
		errors.Is(err, services.ErrNotPending),
		errors.Is(err, services.ErrNotReleasable),
		errors.Is(err, services.ErrCommissionDisbursed),
		errors.Is(err, services.ErrAlreadyPresent),
		errors.Is(err, services.ErrNotPresent),
		errors.Is(err, services.ErrReleaseInProgress),
		errors.Is(err, services.ErrLinkExpired),
		errors.Is(err, services.ErrLinkInactive),
		errors.Is(err, services.ErrLinkUsed):
		return http.StatusConflict
	case errors.Is(err, services.ErrMissingBankDetails),
		errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrTransferFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// CustomErrorHandler creates a custom error handler for Echo. Service
// sentinel errors become JSON responses with matching status codes; echo
// HTTPErrors pass through unchanged.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := err.Error()

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
	} else {
		code = statusFor(err)
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
		// Don't leak internals on unexpected failures.
		message = "Something went wrong. Please try again later."
	}

	if writeErr := c.JSON(code, map[string]string{"error": message}); writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
