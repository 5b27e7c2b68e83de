package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/cartas/cartas-api/internal/core/domain"
)

// PasswordHashes holds the bcrypt hashes of the two identities.
type PasswordHashes struct {
	User1 string
	User2 string
}

// AuthService implements password login against the two fixed identities.
type AuthService struct {
	hashes   PasswordHashes
	sessions *SessionManager
}

func NewAuthService(hashes PasswordHashes, sessions *SessionManager) *AuthService {
	return &AuthService{hashes: hashes, sessions: sessions}
}

// Login verifies password and issues a session for the matching identity.
func (s *AuthService) Login(_ context.Context, password string) (*domain.Session, error) {
	id, err := s.Verify(password)
	if err != nil {
		return nil, err
	}
	return s.sessions.Issue(id)
}

// Verify compares password against user_1's hash, then user_2's. The first
// match wins. Missing hashes are a configuration error, not a failed login.
func (s *AuthService) Verify(password string) (domain.Identity, error) {
	if s.hashes.User1 == "" || s.hashes.User2 == "" {
		return "", fmt.Errorf("%w: password hashes not configured", domain.ErrConfiguration)
	}
	if password == "" {
		return "", domain.ErrPasswordRequired
	}

	candidates := []struct {
		id   domain.Identity
		hash string
	}{
		{domain.User1, s.hashes.User1},
		{domain.User2, s.hashes.User2},
	}
	for _, c := range candidates {
		err := bcrypt.CompareHashAndPassword([]byte(c.hash), []byte(password))
		if err == nil {
			return c.id, nil
		}
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", fmt.Errorf("%w: hash for %s is unusable: %v", domain.ErrConfiguration, c.id, err)
		}
	}

	return "", domain.ErrInvalidCredentials
}

// Authenticate resolves a session token to its identity.
func (s *AuthService) Authenticate(token string) (domain.Identity, bool) {
	return s.sessions.Validate(token)
}
