package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/cartas/cartas-api/internal/core/domain"
)

// DefaultSessionTTL is how long an issued session stays valid.
const DefaultSessionTTL = 24 * time.Hour

// sessionClaims is the signed payload of a session token.
type sessionClaims struct {
	jwt.RegisteredClaims
	UserID domain.Identity `json:"userId"`
}

// SessionManager mints and verifies stateless HS256 session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewSessionManager returns a SessionManager signing with secret. A
// non-positive ttl falls back to DefaultSessionTTL; a nil now uses time.Now.
func NewSessionManager(secret []byte, ttl time.Duration, now func() time.Time, log zerolog.Logger) (*SessionManager, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: session signing secret is empty", domain.ErrConfiguration)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionManager{secret: secret, ttl: ttl, now: now, log: log}, nil
}

// TTL returns the validity period of issued sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new session for id.
func (m *SessionManager) Issue(id domain.Identity) (*domain.Session, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("issue session: unknown identity %q", id)
	}

	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: id,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	return &domain.Session{UserID: id, Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate verifies the token signature and expiry and returns the identity
// it carries. Any failure reports ok=false.
func (m *SessionManager) Validate(token string) (domain.Identity, bool) {
	if token == "" {
		return "", false
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token not valid")
		}
		m.log.Debug().Err(err).Msg("session rejected")
		return "", false
	}
	if !claims.UserID.Valid() {
		m.log.Debug().Str("user_id", string(claims.UserID)).Msg("session carries unknown identity")
		return "", false
	}

	return claims.UserID, true
}
