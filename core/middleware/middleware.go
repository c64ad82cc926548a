package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/liyxianren/mmyq/core/cache"
	"github.com/liyxianren/mmyq/core/constants"
	"github.com/liyxianren/mmyq/core/controller"
	"github.com/liyxianren/mmyq/core/errors"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/core/utils"
)

// Middleware bundles the route guards with their dependencies.
type Middleware struct {
	cache cache.TokenCache
}

func New(tokenCache cache.TokenCache) *Middleware {
	return &Middleware{cache: tokenCache}
}

// AuthMiddleware guards user routes. The parsed claims are stored on the
// echo context under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return m.requireRole(utils.RoleUser)
}

// AdminMiddleware guards admin routes.
func (m *Middleware) AdminMiddleware() echo.MiddlewareFunc {
	return m.requireRole(utils.RoleAdmin)
}

func (m *Middleware) requireRole(role utils.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return controller.NewErrorResponse(401, errors.ErrMissingAuthorizationHeader, "missing authorization header")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return controller.NewErrorResponse(401, errors.ErrInvalidTokenFormat, "authorization header must be a Bearer token")
			}

			claims, err := utils.ValidateAndParseToken(parts[1])
			if err != nil {
				logger.Warn("Middleware:Auth:InvalidToken", "error", err)
				return controller.NewErrorResponse(401, errors.ErrUnauthorized, "invalid or expired token")
			}
			if claims.Role != role {
				return controller.NewErrorResponse(403, errors.ErrForbidden, "insufficient permissions")
			}

			if m.cache != nil {
				blacklisted, err := m.cache.IsTokenBlacklisted(c.Request().Context(), claims.ID)
				if err != nil {
					logger.Error("Middleware:Auth:Blacklist:Error", "error", err)
					return controller.NewErrorResponse(500, errors.ErrInternalServer, "internal server error")
				}
				if blacklisted {
					return controller.NewErrorResponse(401, errors.ErrUnauthorized, "token has been revoked")
				}
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// ClaimsFromContext extracts the token claims stored by the auth middleware.
func ClaimsFromContext(c echo.Context) (*utils.TokenClaims, bool) {
	claims, ok := c.Get(constants.ContextTokenData).(*utils.TokenClaims)
	return claims, ok
}
