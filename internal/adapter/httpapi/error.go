package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eslsoft/explorespeak/internal/entity"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. Unknown errors return a
// generic 500 so internals never leak to clients.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entity.ErrInvalidQuality),
		errors.Is(err, entity.ErrInvalidReviewState),
		errors.Is(err, entity.ErrInvalidCardWord),
		errors.Is(err, entity.ErrInvalidUserID),
		errors.Is(err, entity.ErrInvalidScore),
		errors.Is(err, entity.ErrInvalidResponse):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, entity.ErrCardNotFound),
		errors.Is(err, entity.ErrProfileNotFound),
		errors.Is(err, entity.ErrQuestNotFound),
		errors.Is(err, entity.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, entity.ErrDuplicateCard):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, entity.ErrCardConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
