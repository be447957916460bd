package middleware

// identity.go holds the context keys JWTAuth fills and the helpers that read
// them back for handlers and the key builders of the rate limiter and cache.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

const (
	ContextClaims = "claims"
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextToken  = "token"
)

// ClaimsFrom returns the verified claims stored by JWTAuth.
func ClaimsFrom(c echo.Context) (utils.Claims, bool) {
	cl, ok := c.Get(ContextClaims).(utils.Claims)
	return cl, ok
}

// UserIDFrom returns the authenticated user id, or 0 when unauthenticated.
func UserIDFrom(c echo.Context) uint64 {
	id, _ := c.Get(ContextUserID).(uint64)
	return id
}

// RoleFrom returns the authenticated role, or "" when unauthenticated.
func RoleFrom(c echo.Context) model.Role {
	r, _ := c.Get(ContextRole).(model.Role)
	return r
}

// TokenFrom returns the raw bearer token that authenticated the request.
func TokenFrom(c echo.Context) string {
	s, _ := c.Get(ContextToken).(string)
	return s
}

// userID renders the caller's id for cache and rate-limit keys, falling
// back to fallback when the request is unauthenticated.
func userID(c echo.Context, fallback string) string {
	if id := UserIDFrom(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return fallback
}
