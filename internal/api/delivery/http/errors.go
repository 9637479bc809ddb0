package http

import (
	"errors"
	"net/http"

	"kointos-backend/internal/ai"
	"kointos-backend/internal/api/dto"
	"kointos-backend/internal/api/repository"
	"kointos-backend/internal/auth"
	"kointos-backend/internal/schema"
	"kointos-backend/internal/storage"
	"kointos-backend/pkg/errs"
	"kointos-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// statusOf maps a service error to its HTTP status.
func statusOf(err error) int {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, errPayload),
		errors.Is(err, repository.ErrInvalidFilter),
		errors.Is(err, errs.ErrInvalidKey),
		errors.Is(err, ai.ErrPromptRequired),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthenticated),
		errors.Is(err, errs.ErrInvalidToken),
		errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden), errors.Is(err, errs.ErrLoginDisabled):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a dto.ErrorResponse. Internal errors are logged and their
// message is not exposed.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed",
			logger.StringField("method", c.Request().Method),
			logger.StringField("path", c.Path()),
			logger.ErrorField(err),
		)
		return c.JSON(status, dto.ErrorResponse{Error: "internal server error"})
	}

	resp := dto.ErrorResponse{Error: err.Error()}
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "validation failed"
		resp.Fields = verr.Fields
	}
	return c.JSON(status, resp)
}
