package middleware

import (
	"net/http"
	"strings"

	"furniture-service/internal/capability"
	"furniture-service/pkg/jwtutil"
	"furniture-service/pkg/logger"
	"furniture-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const actorKey = "actor"

// AuthMiddleware validates the JWT token and attaches the authenticated
// actor to the request context.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)
		prometheus.AuthAttemptsCounter.Inc()

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		actor := capability.NewActor(claims.UserID, claims.Email, claims.Role, claims.BranchID)
		c.Set(actorKey, actor)

		prometheus.AuthSuccessCounter.Inc()
		log.Debug("Request authenticated",
			zap.Uint("user_id", actor.UserID),
			zap.String("role", actor.Role))

		return next(c)
	}
}

// RequireCapability gates a route group on a single capability.
func RequireCapability(cap capability.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !actor.Can(cap) {
				logger.FromEcho(c).Warn("Capability denied",
					zap.Uint("user_id", actor.UserID),
					zap.String("role", actor.Role),
					zap.String("capability", string(cap)))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}

// ActorFromContext retrieves the authenticated actor from the context.
func ActorFromContext(c echo.Context) (capability.Actor, bool) {
	actor, ok := c.Get(actorKey).(capability.Actor)
	return actor, ok
}
