package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

// RequireRole returns a middleware that lets a request through only when
// the role JWTAuth stored in the context is one of roles.  Anything else,
// including a missing role, is answered with 403 before the handler runs.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role := RoleFrom(c); !allowed[role] {
				return utils.Forbidden(c)
			}
			return next(c)
		}
	}
}
