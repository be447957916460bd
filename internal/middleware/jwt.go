package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/utils"
)

// Revocations reports whether a token id has been revoked.
// *repository.TokenRepo satisfies it, including a nil one.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the verified claims into the request context under
// ContextClaims, ContextUserID, ContextRole and ContextToken.
//
// A missing or malformed Authorization header answers 401 "No token
// provided".  Any verification failure, including a revoked token id,
// answers 401 "Invalid token".  If the revocation list cannot be consulted
// the error is returned to the central error handler.
func JWTAuth(issuer *utils.TokenIssuer, revoked Revocations) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return utils.Unauthorized(c, utils.MsgNoToken)
			}

			claims, err := issuer.Verify(raw)
			if err != nil {
				return utils.Unauthorized(c, utils.MsgInvalidToken)
			}

			if revoked != nil {
				isRevoked, err := revoked.IsRevoked(c.Request().Context(), claims.TokenID())
				if err != nil {
					return fmt.Errorf("jwt auth: %w", err)
				}
				if isRevoked {
					return utils.Unauthorized(c, utils.MsgInvalidToken)
				}
			}

			c.Set(ContextClaims, claims)
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextToken, raw)
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.  The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
