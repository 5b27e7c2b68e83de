package ports

import (
	"context"

	"github.com/cartas/cartas-api/internal/core/domain"
)

// LetterRepository defines persistence operations for letters.
type LetterRepository interface {
	// Create stores l and returns it with its assigned ID.
	Create(ctx context.Context, l *domain.Letter) (*domain.Letter, error)
	// List returns every letter, newest first.
	List(ctx context.Context) ([]*domain.Letter, error)
	// FindByID returns domain.ErrLetterNotFound for unknown or malformed ids.
	FindByID(ctx context.Context, id string) (*domain.Letter, error)
	// Update applies changes to the letter only if it is still owned by
	// author, and returns the stored result.
	Update(ctx context.Context, id string, author domain.Identity, changes domain.LetterChanges) (*domain.Letter, error)
	// Delete removes the letter only if it is still owned by author.
	Delete(ctx context.Context, id string, author domain.Identity) error
}

// IdempotencyStore remembers which letter a client-supplied key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, author domain.Identity, key string) (letterID string, found bool, err error)
	// Remember records letterID unless key already maps to a letter.
	Remember(ctx context.Context, author domain.Identity, key, letterID string) error
	// Forget drops the mapping for key.
	Forget(ctx context.Context, author domain.Identity, key string) error
}

// Sanitizer turns untrusted rich-text HTML into the allowed subset.
type Sanitizer interface {
	Sanitize(html string) string
}
