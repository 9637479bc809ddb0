package http

import (
	"net/http"

	"kointos-backend/internal/api/dto"
	"kointos-backend/internal/api/service"
	"kointos-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AuthHandler handles HTTP requests of the identity service.
type AuthHandler struct {
	authService service.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// RegisterRoutes registers the auth routes to the Echo group. required guards /me.
func (h *AuthHandler) RegisterRoutes(g *echo.Group, required echo.MiddlewareFunc) {
	g.POST("/signup", h.SignUp)
	g.POST("/signin", h.SignIn)
	g.GET("/me", h.Me, required)
}

// SignUp godoc
// @Summary Register an email identity
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   credentials  body    dto.CredentialsRequest  true  "Email and password"
// @Success 201 {object} dto.IdentityResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	req, err := h.bindCredentials(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	identity, err := h.authService.SignUp(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, identity)
}

// SignIn godoc
// @Summary Sign in with email and password
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   credentials  body    dto.CredentialsRequest  true  "Email and password"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	req, err := h.bindCredentials(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	token, err := h.authService.SignIn(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, token)
}

// Me godoc
// @Summary Current identity
// @Tags auth
// @Produce  json
// @Success 200 {object} dto.IdentityResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id := IdentityFrom(c)
	identity, err := h.authService.Me(c.Request().Context(), id.Subject)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, identity)
}

func (h *AuthHandler) bindCredentials(c echo.Context) (*dto.CredentialsRequest, error) {
	var req dto.CredentialsRequest
	if err := decodeJSON(c.Request().Body, &req); err != nil {
		return nil, err
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}
