// Package middleware provides reusable Echo middleware: the bearer
// authenticator, the authority gate, distributed rate limiting and
// response caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/f-lab-edu/retry-lee/internal/apperr"
	"github.com/f-lab-edu/retry-lee/internal/model"
	"github.com/f-lab-edu/retry-lee/internal/service"
	"github.com/f-lab-edu/retry-lee/internal/utils"
)

// principalKey is the context key the authenticator stores the resolved
// principal under.
const principalKey = "principal"

// PrincipalFrom returns the authenticated principal attached to the
// request, if any. ok is false for unauthenticated requests.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}

// Authenticate returns the per-request authentication gate. It extracts
// a bearer token, decodes it, requires the ACCESS kind and re-resolves
// the principal against its role table. On success the principal is
// attached to the context; on any failure nothing is attached and the
// request continues unauthenticated, leaving the decision to the
// authority gate downstream. The refresh slot is deliberately not
// consulted here: plain access-token use is stateless.
func Authenticate(codec *utils.TokenCodec, resolver *service.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := codec.Decode(raw)
			if err != nil || claims.Kind != utils.TokenAccess {
				// Expired, tampered, malformed, or a refresh token used
				// as a bearer credential. Not authenticated.
				return next(c)
			}

			p, err := resolver.ResolveByRoleAndID(c.Request().Context(), claims.Role, claims.PrincipalID)
			if err != nil {
				return next(c)
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// RequireAuthority rejects requests whose principal does not carry the
// given authority. Unauthenticated requests get 401, authenticated ones
// without the authority get 403. Admins carry ROLE_USER as well, so a
// ROLE_USER gate admits both role kinds.
func RequireAuthority(authority string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"code": apperr.ErrInvalidToken.Code, "error": apperr.ErrInvalidToken.Message})
			}
			if !p.HasAuthority(authority) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
