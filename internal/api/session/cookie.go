// Package session carries session tokens between the client and the
// AuthService using an HTTP-only cookie.
package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cartas/cartas-api/internal/core/domain"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// Authenticator resolves a raw token to an identity.
type Authenticator interface {
	Authenticate(token string) (domain.Identity, bool)
}

// Cookies writes and reads the session cookie. Secure should be true
// everywhere except local development.
type Cookies struct {
	Secure bool
	TTL    time.Duration
}

// Set stores token in the session cookie.
func (c Cookies) Set(ctx echo.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear tells the client to drop its session cookie. Copies of the token
// held elsewhere stay valid until they expire.
func (c Cookies) Clear(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the raw session cookie value, or "".
func Token(ctx echo.Context) string {
	cookie, err := ctx.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Identity resolves the identity of the request. A missing cookie and an
// invalid token are reported the same way.
func Identity(ctx echo.Context, auth Authenticator) (domain.Identity, bool) {
	token := Token(ctx)
	if token == "" {
		return "", false
	}
	return auth.Authenticate(token)
}
