package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-system/internal/api/metrics"
	"github.com/99minutos/task-system/internal/core/domain"
	"github.com/99minutos/task-system/internal/core/ports"
)

// IdentityKey is the echo.Context key holding the verified domain.Identity.
const IdentityKey = "identity"

// Auth verifies the bearer token and injects the caller's identity into the
// context. Rejected requests never reach the next handler.
func Auth(tokens ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.TrimSpace(authHeader) == "" {
				return reject(c, "missing", domain.ErrMissingCredential)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return reject(c, "malformed", domain.ErrTokenMalformed)
			}

			id, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return reject(c, "expired", domain.ErrTokenExpired)
				}
				return reject(c, "malformed", domain.ErrTokenMalformed)
			}

			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

func reject(c echo.Context, reason string, cause error) error {
	metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, cause.Error()).SetInternal(cause)
}
