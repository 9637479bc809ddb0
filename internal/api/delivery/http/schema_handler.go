package http

import (
	"net/http"

	"kointos-backend/internal/schema"
	"kointos-backend/internal/storage"
	"kointos-backend/pkg/config"

	"github.com/labstack/echo/v4"
)

// SchemaDocument describes the backend to clients: models, identity service, storage and
// functions.
type SchemaDocument struct {
	Auth      AuthDocument       `json:"auth"`
	Models    []*schema.Model    `json:"models"`
	Storage   *storage.Policy    `json:"storage"`
	Functions []FunctionDocument `json:"functions"`
}

// AuthDocument is the public part of the identity service configuration.
type AuthDocument struct {
	Name      string          `json:"name"`
	LoginWith map[string]bool `json:"loginWith"`
	Groups    []string        `json:"groups,omitempty"`
}

// FunctionDocument describes one invocable function.
type FunctionDocument struct {
	Name           string `json:"name"`
	Path           string `json:"path"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// SchemaHandler serves the schema document.
type SchemaHandler struct {
	doc SchemaDocument
}

// NewSchemaHandler builds the document once from its sources.
func NewSchemaHandler(registry *schema.Registry, policy *storage.Policy, authCfg config.Auth, functions ...FunctionDocument) *SchemaHandler {
	return &SchemaHandler{doc: SchemaDocument{
		Auth: AuthDocument{
			Name:      authCfg.Name,
			LoginWith: map[string]bool{"email": authCfg.LoginWith.Email},
			Groups:    authCfg.Groups,
		},
		Models:    registry.Models(),
		Storage:   policy,
		Functions: functions,
	}}
}

// RegisterRoutes registers the schema route to the Echo group.
func (h *SchemaHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Get)
}

// Get godoc
// @Summary Backend schema
// @Tags schema
// @Produce  json
// @Success 200 {object} SchemaDocument
// @Router /schema [get]
func (h *SchemaHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.doc)
}
