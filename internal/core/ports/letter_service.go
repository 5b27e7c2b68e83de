package ports

import (
	"context"

	"github.com/cartas/cartas-api/internal/core/domain"
)

// CreateLetterInput carries a validated compose request.
type CreateLetterInput struct {
	Subject        string
	Body           string
	Signature      string
	AuthorID       domain.Identity
	IdempotencyKey string
}

// CreateLetterResult is returned after a create.
type CreateLetterResult struct {
	Letter *domain.Letter
	// AlreadyExisted is true when the Idempotency-Key matched an earlier create.
	AlreadyExisted bool
}

// UpdateLetterInput carries a validated edit request.
type UpdateLetterInput struct {
	ID        string
	Subject   string
	Body      string
	Signature string
	Actor     domain.Identity
}

// LetterService defines use-case operations for letters.
type LetterService interface {
	List(ctx context.Context) ([]*domain.Letter, error)
	Create(ctx context.Context, input CreateLetterInput) (*CreateLetterResult, error)
	Update(ctx context.Context, input UpdateLetterInput) (*domain.Letter, error)
	Delete(ctx context.Context, id string, actor domain.Identity) error
}
