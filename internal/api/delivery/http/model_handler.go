package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"kointos-backend/internal/api/dto"
	"kointos-backend/internal/api/service"
	"kointos-backend/internal/schema"
	"kointos-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

const maxBodyBytes = 1 << 20

// ModelHandler serves the data API of one declared model.
type ModelHandler[T any] struct {
	model   *schema.Model
	service service.ModelService[T]
	logger  *logger.Logger
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler[T any](model *schema.Model, svc service.ModelService[T], log *logger.Logger) *ModelHandler[T] {
	return &ModelHandler[T]{model: model, service: svc, logger: log}
}

// RegisterRoutes registers the model routes to the Echo group.
func (h *ModelHandler[T]) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// Create godoc
// @Summary Create a record
// @Description The caller becomes the owner of owner-scoped records. Identifier and timestamps are server assigned.
// @Tags data
// @Accept  json
// @Produce  json
// @Param   model  path  string  true  "Model path"
// @Success 201 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /{model} [post]
func (h *ModelHandler[T]) Create(c echo.Context) error {
	record := new(T)
	if err := decodeJSON(c.Request().Body, record); err != nil {
		return respondError(c, h.logger, err)
	}

	created, err := h.service.Create(c.Request().Context(), IdentityFrom(c), record)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// List godoc
// @Summary List records
// @Description Query parameters other than limit and offset filter on string and boolean fields by equality.
// @Tags data
// @Produce  json
// @Param   model   path   string  true   "Model path"
// @Param   limit   query  int     false  "Page size (default 100, max 1000)"
// @Param   offset  query  int     false  "Records to skip"
// @Success 200 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /{model} [get]
func (h *ModelHandler[T]) List(c echo.Context) error {
	q := service.ListQuery{Equals: map[string]string{}}
	for key, values := range c.QueryParams() {
		if len(values) == 0 {
			continue
		}
		switch key {
		case "limit", "offset":
			n, err := strconv.Atoi(values[0])
			if err != nil || n < 0 {
				return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("invalid %s", key)})
			}
			if key == "limit" {
				q.Limit = n
			} else {
				q.Offset = n
			}
		default:
			q.Equals[key] = values[0]
		}
	}

	items, err := h.service.List(c.Request().Context(), IdentityFrom(c), q)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, dto.ListResponse[T]{Items: items, Limit: q.Limit, Offset: q.Offset})
}

// Get godoc
// @Summary Get a record by ID
// @Tags data
// @Produce  json
// @Param   model  path  string  true  "Model path"
// @Param   id     path  string  true  "Record ID"
// @Success 200 {object} object
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /{model}/{id} [get]
func (h *ModelHandler[T]) Get(c echo.Context) error {
	record, err := h.service.Get(c.Request().Context(), IdentityFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, record)
}

// Update godoc
// @Summary Update a record
// @Description Fields present in the body replace the stored values. Identifier, owner and timestamps cannot change.
// @Tags data
// @Accept  json
// @Produce  json
// @Param   model  path  string  true  "Model path"
// @Param   id     path  string  true  "Record ID"
// @Success 200 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /{model}/{id} [put]
func (h *ModelHandler[T]) Update(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil || len(body) > maxBodyBytes {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request payload"})
	}

	updated, err := h.service.Update(c.Request().Context(), IdentityFrom(c), c.Param("id"), func(record *T) error {
		return decodeJSON(bytes.NewReader(body), record)
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete a record
// @Tags data
// @Param   model  path  string  true  "Model path"
// @Param   id     path  string  true  "Record ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /{model}/{id} [delete]
func (h *ModelHandler[T]) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), IdentityFrom(c), c.Param("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// errPayload marks a request body that is not a well-formed object of the model.
var errPayload = errors.New("invalid request payload")

// decodeJSON decodes a single JSON object into v, rejecting unknown fields.
func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errPayload, err)
	}
	return nil
}
