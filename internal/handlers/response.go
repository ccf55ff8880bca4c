package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/spotlight/backend/internal/middleware"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// httpError maps service errors onto HTTP statuses. Anything unrecognised is
// a 500 and is logged by the error handler.
func httpError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	}
	return err
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func paginated(c echo.Context, data any, page services.Page, total int64) error {
	totalPages := int(math.Ceil(float64(total) / float64(page.Limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    data,
		"meta": echo.Map{
			"currentPage":     page.Page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    page.Limit,
			"hasNextPage":     page.Page < totalPages,
			"hasPreviousPage": page.Page > 1,
		},
	})
}

func pageFrom(c echo.Context) services.Page {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return services.NewPage(page, limit)
}

func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// bindAndValidate binds the request body into req and runs the echo validator
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

func currentUserID(c echo.Context) uint {
	return middleware.UserID(c)
}
