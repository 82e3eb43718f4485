package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/welldanyogia/webrana-support-assistant/internal/validator"
)

// parseID reads a positive numeric path parameter
func parseID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pagination reads limit with either offset or a 1-based page. Invalid
// values fall back to the defaults.
func pagination(c echo.Context) (limit, offset int) {
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	limit, offset = validator.ValidatePagination(limit, offset)

	if p := c.QueryParam("page"); p != "" && c.QueryParam("offset") == "" {
		if page, err := strconv.Atoi(p); err == nil && page > 1 {
			offset = (page - 1) * limit
		}
	}
	return limit, offset
}
