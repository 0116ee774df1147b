// Package echomw provides the Echo middlewares of the plate API.
package echomw

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

const (
	// API token for /api/v1 routes.
	EnvBearerToken = "PLATE_API_BEARER_TOKEN"

	authRealm = "condo-plates"
)

/*
Middleware that requires "Authorization: Bearer <token>" matching PLATE_API_BEARER_TOKEN.

The variable is looked up on every request so a rotated token applies without restart.
An empty variable rejects everything.
*/
func RequireBearerToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		expected := strings.TrimSpace(os.Getenv(EnvBearerToken))
		if expected == "" {
			return rejectRequest(c, "API token is not configured")
		}

		received, ok := parseBearer(c.Request().Header.Get("Authorization"))
		if !ok {
			return rejectRequest(c, "Missing or malformed bearer token")
		}
		if subtle.ConstantTimeCompare([]byte(received), []byte(expected)) != 1 {
			return rejectRequest(c, "Bearer token mismatch")
		}

		return next(c)
	}
}

// scheme is case-insensitive
func parseBearer(header string) (token string, ok bool) {
	scheme, rest, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(rest)
	return token, token != ""
}

func rejectRequest(c echo.Context, reason string) error {
	LogRouteAccess(c, tl.Info, "Unauthorized: "+reason, palette.Yellow)

	c.Response().Header().Set("WWW-Authenticate", `Bearer realm="`+authRealm+`"`)
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}
