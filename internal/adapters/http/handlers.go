package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/priospace/core/internal/domain/entities"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// domainError maps domain errors onto HTTP status codes. Anything not
// recognized is treated as a bad request: services only fail on input
// they were handed.
func domainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrTagNotFound),
		errors.Is(err, entities.ErrHabitNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
