package http

import (
	"kointos-backend/internal/ai"
	"kointos-backend/internal/api/service"
	"kointos-backend/internal/storage"
	"kointos-backend/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	swagger "github.com/swaggo/echo-swagger"
)

// RouterDeps are the collaborators of the HTTP API.
type RouterDeps struct {
	Models      ModelDeps
	Tokens      TokenVerifier
	AuthConfig  config.Auth
	AuthService service.AuthService
	AIService   *ai.Service
	Store       *storage.Store
	Policy      *storage.Policy
}

// NewRouter builds the echo instance serving /api/v1.
func NewRouter(d RouterDeps) *echo.Echo {
	log := d.Models.Logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = d.Models.Validator
	e.Use(middleware.Recover())
	e.Use(RequestLogger(log))

	authMw := NewAuthMiddleware(d.Tokens, log)
	apiV1 := e.Group("/api/v1")

	NewSchemaHandler(d.Models.Registry, d.Policy, d.AuthConfig, FunctionDocument{
		Name:           "ai-invoke",
		Path:           "/ai/invoke",
		TimeoutSeconds: 300,
	}).RegisterRoutes(apiV1.Group("/schema"))

	NewAuthHandler(d.AuthService, log).RegisterRoutes(apiV1.Group("/auth"), authMw.Required())
	NewStorageHandler(d.Store, d.Policy, log).RegisterRoutes(apiV1.Group("/storage", authMw.Optional()))
	NewAIHandler(d.AIService, log).RegisterRoutes(apiV1.Group("/ai", authMw.Required()))

	// Authorization of the data API is decided per record by the model rules, so guests
	// pass the middleware and are rejected by the service.
	RegisterModels(apiV1.Group("", authMw.Optional()), d.Models)

	e.GET("/swagger/*", swagger.WrapHandler)

	return e
}
