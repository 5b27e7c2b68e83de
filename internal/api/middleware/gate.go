package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cartas/cartas-api/internal/api/session"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// DefaultPublicPaths are reachable without a session. Handlers under
// /letters and /auth enforce authentication themselves and answer 401.
var DefaultPublicPaths = []string{LoginPath, "/auth", "/letters", "/health", "/metrics"}

// Gate redirects requests without a valid session to LoginPath, except for
// paths under one of the public prefixes. It never stores the identity in
// the context; handlers resolve it again when they need it.
func Gate(auth session.Authenticator, publicPaths ...string) echo.MiddlewareFunc {
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isPublic(c.Request().URL.Path, publicPaths) {
				return next(c)
			}
			if _, ok := session.Identity(c, auth); !ok {
				return c.Redirect(http.StatusFound, LoginPath)
			}
			return next(c)
		}
	}
}

// isPublic matches whole path segments: "/letters" covers "/letters/42"
// but not "/lettersx".
func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
