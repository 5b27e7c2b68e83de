package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartas/cartas-api/internal/core/domain"
	"github.com/cartas/cartas-api/internal/core/ports"
)

// LetterService implements the letter use cases on top of a repository.
type LetterService struct {
	repo      ports.LetterRepository
	sanitizer ports.Sanitizer
	idem      ports.IdempotencyStore
	now       func() time.Time
	logger    zerolog.Logger
}

// NewLetterService wires the service. idem may be nil to disable
// Idempotency-Key handling; a nil now uses time.Now.
func NewLetterService(
	repo ports.LetterRepository,
	sanitizer ports.Sanitizer,
	idem ports.IdempotencyStore,
	now func() time.Time,
	logger zerolog.Logger,
) *LetterService {
	if now == nil {
		now = time.Now
	}
	return &LetterService{repo: repo, sanitizer: sanitizer, idem: idem, now: now, logger: logger}
}

// List returns every letter, newest first.
func (s *LetterService) List(ctx context.Context) ([]*domain.Letter, error) {
	letters, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list letters: %w", err)
	}
	return letters, nil
}

// Create stores a new letter authored by input.AuthorID. When an idempotency
// key was already used by the same author, the earlier letter is returned.
func (s *LetterService) Create(ctx context.Context, input ports.CreateLetterInput) (*ports.CreateLetterResult, error) {
	if !input.AuthorID.Valid() {
		return nil, domain.ErrUnauthenticated
	}

	if existing := s.replay(ctx, input.AuthorID, input.IdempotencyKey); existing != nil {
		return &ports.CreateLetterResult{Letter: existing, AlreadyExisted: true}, nil
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.Letter{
		Subject:   strings.TrimSpace(input.Subject),
		Body:      s.sanitizer.Sanitize(input.Body),
		Signature: strings.TrimSpace(input.Signature),
		AuthorID:  input.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create letter: %w", err)
	}

	if s.idem != nil && input.IdempotencyKey != "" {
		if err := s.idem.Remember(ctx, input.AuthorID, input.IdempotencyKey, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("letter_id", created.ID).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().
		Str("letter_id", created.ID).
		Str("author", created.AuthorID.String()).
		Msg("letter created")

	return &ports.CreateLetterResult{Letter: created}, nil
}

// replay returns the letter previously created under key, or nil.
func (s *LetterService) replay(ctx context.Context, author domain.Identity, key string) *domain.Letter {
	if s.idem == nil || key == "" {
		return nil
	}

	id, found, err := s.idem.Lookup(ctx, author, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if !found {
		return nil
	}

	existing, err := s.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrLetterNotFound):
		// The letter was deleted; free the key so the next create claims it.
		if err := s.idem.Forget(ctx, author, key); err != nil {
			s.logger.Warn().Err(err).Str("letter_id", id).Msg("failed to drop stale idempotency key")
		}
		return nil
	case err != nil:
		s.logger.Warn().Err(err).Str("letter_id", id).Msg("idempotent replay lookup failed")
		return nil
	}

	s.logger.Info().Str("letter_id", existing.ID).Msg("idempotent replay")
	return existing
}

// Update edits a letter. The letter is loaded and authorized before any
// write is issued.
func (s *LetterService) Update(ctx context.Context, input ports.UpdateLetterInput) (*domain.Letter, error) {
	if err := s.authorize(ctx, input.ID, input.Actor, domain.MutationEdit); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, input.ID, input.Actor, domain.LetterChanges{
		Subject:   strings.TrimSpace(input.Subject),
		Body:      s.sanitizer.Sanitize(input.Body),
		Signature: strings.TrimSpace(input.Signature),
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("update letter: %w", err)
	}

	s.logger.Info().Str("letter_id", input.ID).Str("author", input.Actor.String()).Msg("letter updated")
	return updated, nil
}

// Delete removes a letter after the same checks as Update.
func (s *LetterService) Delete(ctx context.Context, id string, actor domain.Identity) error {
	if err := s.authorize(ctx, id, actor, domain.MutationDelete); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, actor); err != nil {
		return fmt.Errorf("delete letter: %w", err)
	}

	s.logger.Info().Str("letter_id", id).Str("author", actor.String()).Msg("letter deleted")
	return nil
}

func (s *LetterService) authorize(ctx context.Context, id string, actor domain.Identity, op domain.Mutation) error {
	if !actor.Valid() {
		return domain.ErrUnauthenticated
	}

	letter, err := s.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrLetterNotFound):
		letter = nil
	case err != nil:
		return fmt.Errorf("find letter: %w", err)
	}

	if err := domain.CanMutate(letter, actor, s.now(), op); err != nil {
		s.logger.Debug().Err(err).Str("letter_id", id).Str("actor", actor.String()).Msg("mutation denied")
		return err
	}
	return nil
}
