package http

import (
	"net/http"
	"strings"

	"kointos-backend/internal/api/dto"
	"kointos-backend/internal/storage"
	"kointos-backend/pkg/errs"
	"kointos-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StorageHandler serves object storage under the bucket policy.
type StorageHandler struct {
	store  *storage.Store
	policy *storage.Policy
	logger *logger.Logger
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(store *storage.Store, policy *storage.Policy, logger *logger.Logger) *StorageHandler {
	return &StorageHandler{store: store, policy: policy, logger: logger}
}

// RegisterRoutes registers the storage routes to the Echo group.
func (h *StorageHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.PUT("/*", h.Put)
	g.GET("/*", h.Get)
	g.DELETE("/*", h.Delete)
}

// Put godoc
// @Summary Upload an object
// @Tags storage
// @Accept  application/octet-stream
// @Produce  json
// @Param   key  path  string  true  "Object key"
// @Success 200 {object} dto.ObjectResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /storage/{key} [put]
func (h *StorageHandler) Put(c echo.Context) error {
	key, err := h.authorize(c, storage.ActionWrite)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	obj, err := h.store.Put(c.Request().Context(), key, c.Request().Body)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	h.logger.Info("Object stored", logger.StringField("key", key), logger.Field("size", obj.Size))
	return c.JSON(http.StatusOK, toObjectResponse(*obj))
}

// Get godoc
// @Summary Download an object
// @Tags storage
// @Produce  application/octet-stream
// @Param   key  path  string  true  "Object key"
// @Success 200
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /storage/{key} [get]
func (h *StorageHandler) Get(c echo.Context) error {
	key, err := h.authorize(c, storage.ActionRead)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	rc, obj, err := h.store.Get(c.Request().Context(), key)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, obj.ContentType, rc)
}

// Delete godoc
// @Summary Delete an object
// @Tags storage
// @Param   key  path  string  true  "Object key"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /storage/{key} [delete]
func (h *StorageHandler) Delete(c echo.Context) error {
	key, err := h.authorize(c, storage.ActionDelete)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if err := h.store.Delete(c.Request().Context(), key); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List godoc
// @Summary List objects under a prefix
// @Tags storage
// @Produce  json
// @Param   prefix  query  string  true  "Key prefix"
// @Success 200 {object} dto.ObjectListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /storage [get]
func (h *StorageHandler) List(c echo.Context) error {
	prefix := c.QueryParam("prefix")
	if !h.policy.AllowedPrefix(IdentityFrom(c), prefix, storage.ActionRead) {
		return respondError(c, h.logger, h.denied(c))
	}
	objects, err := h.store.List(c.Request().Context(), prefix)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	resp := dto.ObjectListResponse{Bucket: h.store.Bucket(), Prefix: prefix, Objects: make([]dto.ObjectResponse, 0, len(objects))}
	for _, o := range objects {
		resp.Objects = append(resp.Objects, toObjectResponse(o))
	}
	return c.JSON(http.StatusOK, resp)
}

// authorize returns the object key of the request if the caller may perform action on it.
func (h *StorageHandler) authorize(c echo.Context, action storage.Action) (string, error) {
	key := strings.TrimPrefix(c.Param("*"), "/")
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	if !h.policy.Allowed(IdentityFrom(c), key, action) {
		return "", h.denied(c)
	}
	return key, nil
}

// denied is 401 for guests, who might be allowed once signed in, and 403 otherwise.
func (h *StorageHandler) denied(c echo.Context) error {
	if IdentityFrom(c) == nil {
		return errs.ErrUnauthenticated
	}
	return errs.ErrForbidden
}

func toObjectResponse(o storage.Object) dto.ObjectResponse {
	return dto.ObjectResponse{Key: o.Key, Size: o.Size, ContentType: o.ContentType, ModifiedAt: o.ModifiedAt}
}

