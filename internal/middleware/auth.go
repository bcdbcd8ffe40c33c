package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-service/internal/tenancy"
	"rental-service/pkg/jwtutil"
	"rental-service/pkg/logger"
)

// AuthMiddleware validates the JWT token and derives the tenancy scope.
// Requests without a company scope never reach a handler.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		scope, err := tenancy.FromClaims(claims)
		if err != nil {
			log.Warn("JWT token does not carry a company scope")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "company scope is required in the token"})
		}

		// Store claims and scope in context for later use
		c.Set("user", claims)
		c.Set("scope", scope)
		log.Debug("Request authenticated",
			zap.Uint("user_id", scope.ActorID),
			zap.Uint("company_id", scope.CompanyID))

		return next(c)
	}
}

// ScopeFromContext retrieves the tenancy scope stored by AuthMiddleware
func ScopeFromContext(c echo.Context) (tenancy.Context, bool) {
	scope, ok := c.Get("scope").(tenancy.Context)
	return scope, ok
}
