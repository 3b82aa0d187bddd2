package middleware

import (
	"net/http"
	"strings"

	"github.com/fairwaybook/teetime-service/internal/auth"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// Authenticate parses the Bearer token and attaches the caller's Principal to
// the Echo context. Requests without a valid token never reach a handler.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := auth.ParseValidate(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(principalKey, auth.Principal{ID: claims.Subject, Role: claims.Role})
			return next(c)
		}
	}
}

// RequireRole rejects authenticated callers whose role is not in the allowed
// set.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if _, ok := allowed[p.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the Principal set by Authenticate.
func PrincipalFrom(c echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(principalKey).(auth.Principal)
	return p, ok
}

// SetPrincipal is exposed for handler tests that bypass Authenticate.
func SetPrincipal(c echo.Context, p auth.Principal) {
	c.Set(principalKey, p)
}
