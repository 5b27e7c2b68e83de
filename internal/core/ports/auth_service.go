package ports

import (
	"context"

	"github.com/cartas/cartas-api/internal/core/domain"
)

// AuthService verifies passwords and resolves sessions.
type AuthService interface {
	// Login checks password against the configured identities and, on
	// success, issues a new session.
	Login(ctx context.Context, password string) (*domain.Session, error)
	// Authenticate resolves a session token. Every failure yields ok=false;
	// callers cannot tell an absent token from a forged one.
	Authenticate(token string) (id domain.Identity, ok bool)
}
