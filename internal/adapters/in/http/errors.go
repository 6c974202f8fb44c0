package http

import (
	"context"
	"errors"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusOf maps an application error to its HTTP status.
func statusOf(err error) int {
	var geofence *commands.GeofenceError
	switch {
	case errors.As(err, &geofence):
		return http.StatusConflict
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrPreconditionFailed):
		return http.StatusConflict
	case errors.Is(err, commands.ErrPositionUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an Error body. Client errors carry the error text;
// server errors carry only fallback and are logged.
func (s *Server) fail(ctx echo.Context, err error, fallback string) error {
	code := statusOf(err)
	message := err.Error()
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), fallback,
			"method", ctx.Request().Method,
			"path", ctx.Path(),
			"error", err,
		)
		message = fallback
	}
	return ctx.JSON(code, Error{Code: code, Message: message})
}

func (s *Server) badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: message})
}
