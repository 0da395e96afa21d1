package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// pagination reads page/page_size query parameters with sane bounds.
func pagination(c echo.Context) (limit, offset int) {
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize := 20
	if ps, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && ps > 0 && ps <= 100 {
		pageSize = ps
	}
	return pageSize, (page - 1) * pageSize
}
