// Package memory provides a process-local letter store for development and
// tests. Contents are lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cartas/cartas-api/internal/core/domain"
)

// LetterRepository implements ports.LetterRepository over a map.
type LetterRepository struct {
	mu      sync.RWMutex
	letters map[string]domain.Letter
}

func NewLetterRepository() *LetterRepository {
	return &LetterRepository{letters: make(map[string]domain.Letter)}
}

func (r *LetterRepository) Create(_ context.Context, l *domain.Letter) (*domain.Letter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *l
	stored.ID = uuid.NewString()
	r.letters[stored.ID] = stored

	out := stored
	return &out, nil
}

func (r *LetterRepository) List(_ context.Context) ([]*domain.Letter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Letter, 0, len(r.letters))
	for _, l := range r.letters {
		l := l
		out = append(out, &l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *LetterRepository) FindByID(_ context.Context, id string) (*domain.Letter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.letters[id]
	if !ok {
		return nil, domain.ErrLetterNotFound
	}
	return &l, nil
}

func (r *LetterRepository) Update(_ context.Context, id string, author domain.Identity, ch domain.LetterChanges) (*domain.Letter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.letters[id]
	if !ok || l.AuthorID != author {
		return nil, domain.ErrLetterNotFound
	}
	l.Subject = ch.Subject
	l.Body = ch.Body
	l.Signature = ch.Signature
	l.UpdatedAt = ch.UpdatedAt
	r.letters[id] = l

	return &l, nil
}

func (r *LetterRepository) Delete(_ context.Context, id string, author domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.letters[id]
	if !ok || l.AuthorID != author {
		return domain.ErrLetterNotFound
	}
	delete(r.letters, id)
	return nil
}

// Ping always succeeds.
func (r *LetterRepository) Ping(context.Context) error {
	return nil
}
