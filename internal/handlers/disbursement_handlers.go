package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"estate_backoffice/internal/middleware"
	"estate_backoffice/internal/models"
	"estate_backoffice/internal/services"
)

type DisbursementHandler struct {
	disbursements *services.DisbursementService
	config        *services.DisbursementConfigService
	cache         *services.RedisCache
}

func NewDisbursementHandler(
	disbursements *services.DisbursementService,
	config *services.DisbursementConfigService,
	cache *services.RedisCache,
) *DisbursementHandler {
	return &DisbursementHandler{disbursements: disbursements, config: config, cache: cache}
}

type createDisbursementRequest struct {
	CommissionID uint `json:"commission_id"`
}

// Create opens a pending disbursement for one commission
func (h *DisbursementHandler) Create(c echo.Context) error {
	var req createDisbursementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.CommissionID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "commission_id is required")
	}

	disbursement, err := h.disbursements.Create(req.CommissionID, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, disbursement)
}

type createBulkRequest struct {
	CommissionIDs []uint `json:"commission_ids"`
}

// CreateBulk opens disbursements for a list of commissions; items succeed
// or fail independently
func (h *DisbursementHandler) CreateBulk(c echo.Context) error {
	var req createBulkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if len(req.CommissionIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "commission_ids is required")
	}

	results := h.disbursements.CreateBulk(req.CommissionIDs, middleware.Actor(c))
	return c.JSON(http.StatusOK, map[string]interface{}{"results": results})
}

type releaseRequest struct {
	BankDetails *models.BankDetails `json:"bank_details,omitempty"`
}

// Release pushes a pending disbursement through the payment provider
func (h *DisbursementHandler) Release(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req releaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	disbursement, err := h.disbursements.Release(c.Request().Context(), id, req.BankDetails, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, disbursement)
}

// Stats returns count/sum aggregates per status, optionally windowed by
// date and scoped to a recipient kind. Cached briefly in Redis.
func (h *DisbursementHandler) Stats(c echo.Context) error {
	var from, to *time.Time
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid from date, want YYYY-MM-DD")
		}
		from = &t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid to date, want YYYY-MM-DD")
		}
		to = &t
	}

	var kind *models.RecipientKind
	if raw := c.QueryParam("recipient_kind"); raw != "" {
		k := models.RecipientKind(raw)
		kind = &k
	}

	fetch := func() (*services.DisbursementStats, error) {
		return h.disbursements.Stats(from, to, kind)
	}

	var stats *services.DisbursementStats
	var err error
	if h.cache != nil {
		cacheKey := "disbursement:stats:" + c.QueryString()
		stats, err = services.GetOrSet(h.cache, c.Request().Context(), cacheKey, 30*time.Second, fetch)
	} else {
		stats, err = fetch()
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// GetConfig returns the auto-disbursement policy
func (h *DisbursementHandler) GetConfig(c echo.Context) error {
	config, err := h.config.Get()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, config)
}

type setModeRequest struct {
	Mode models.DisbursementMode `json:"mode"`
}

// SetConfigMode switches the policy between ALL_EXCEPT and NONE_EXCEPT
func (h *DisbursementHandler) SetConfigMode(c echo.Context) error {
	var req setModeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	config, err := h.config.SetMode(req.Mode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, config)
}

type exceptionRequest struct {
	RecipientKind models.RecipientKind `json:"recipient_kind"`
	RecipientID   uint                 `json:"recipient_id"`
}

// AddException puts a recipient on the policy exception list
func (h *DisbursementHandler) AddException(c echo.Context) error {
	var req exceptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	config, err := h.config.AddException(req.RecipientKind, req.RecipientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, config)
}

// RemoveException takes a recipient off the policy exception list
func (h *DisbursementHandler) RemoveException(c echo.Context) error {
	var req exceptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	config, err := h.config.RemoveException(req.RecipientKind, req.RecipientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, config)
}
