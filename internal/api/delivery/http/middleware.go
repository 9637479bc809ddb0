package http

import (
	"net/http"
	"strings"
	"time"

	"kointos-backend/internal/api/dto"
	"kointos-backend/internal/schema"
	"kointos-backend/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const identityKey = "identity"

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(token string) (*schema.Identity, error)
}

// AuthMiddleware attaches the caller identity to the request context.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *logger.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(verifier TokenVerifier, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: log}
}

// Required rejects requests without a valid bearer token.
func (m *AuthMiddleware) Required() echo.MiddlewareFunc {
	return m.handle(false)
}

// Optional lets guests through. A token that is present must still be valid.
func (m *AuthMiddleware) Optional() echo.MiddlewareFunc {
	return m.handle(true)
}

func (m *AuthMiddleware) handle(guestAllowed bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				if guestAllowed {
					return next(c)
				}
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing bearer token"})
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				m.logger.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid authorization header"})
			}

			id, err := m.verifier.Verify(token)
			if err != nil {
				m.logger.Debug("Rejected bearer token", logger.ErrorField(err))
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid token"})
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the caller identity, or nil for guests.
func IdentityFrom(c echo.Context) *schema.Identity {
	id, _ := c.Get(identityKey).(*schema.Identity)
	return id
}

// RequestLogger logs one line per request through log.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Warn("HTTP request failed",
					logger.StringField("method", v.Method),
					logger.StringField("path", v.URIPath),
					logger.ErrorField(v.Error),
				)
				return nil
			}
			log.Info("HTTP request",
				logger.StringField("method", v.Method),
				logger.StringField("path", v.URIPath),
				logger.IntField("status", v.Status),
				logger.StringField("latency", v.Latency.Round(time.Microsecond).String()),
			)
			return nil
		},
	})
}
