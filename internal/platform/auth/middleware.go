package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireToken returns middleware that rejects requests without a valid
// Bearer token. On success the claims are stored in the context under
// "auth_claims".
func RequireToken(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}

			claims, err := issuer.Parse(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("auth_claims", claims)
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims stored by RequireToken, or nil.
func ClaimsFromContext(c echo.Context) *Claims {
	claims, _ := c.Get("auth_claims").(*Claims)
	return claims
}
