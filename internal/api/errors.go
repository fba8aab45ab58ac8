package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/scholarfeed/internal/social"
	"github.com/scholarfeed/internal/store"
)

// httpError maps service errors onto HTTP status codes. Validation messages
// are safe to show the caller; everything unexpected becomes an opaque 500.
func httpError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, social.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Not allowed")
	case errors.Is(err, social.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Conflicting update, retry")
	default:
		log.Error().Err(err).Msg("request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal error")
	}
}
