package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lsiproject/propertyhub/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func BadRequest(c echo.Context, err error) error {
	slog.DebugContext(c.Request().Context(), "Bad request", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.DebugContext(c.Request().Context(), "Bad request", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(c.Request().Context(), "Internal error", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

// Error writes err with the status its kind maps to.
func Error(c echo.Context, err error) error {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		return InternalError(c, err)
	}
	if status >= http.StatusBadGateway {
		slog.WarnContext(c.Request().Context(), "Upstream failure", slog.String("error", err.Error()), slog.String("module", "rest"))
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotYetListed), errors.Is(err, domain.ErrDelisted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLedger):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrCollaboratorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
