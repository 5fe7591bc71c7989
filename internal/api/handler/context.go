package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-system/internal/api/middleware"
	"github.com/99minutos/task-system/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware. A
// missing or empty identity means the route was wired without the guard.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := c.Get(middleware.IdentityKey).(domain.Identity)
	if !ok || id.UserID == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, domain.ErrMissingCredential.Error()).
			SetInternal(domain.ErrMissingCredential)
	}
	return id, nil
}
