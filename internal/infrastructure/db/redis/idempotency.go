package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cartas/cartas-api/internal/core/domain"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore maps (author, Idempotency-Key) to the letter it created.
// Key format: idem:letters:<author>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. Keys expire after 24 hours.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Lookup returns the letter id stored under key for author.
func (s *IdempotencyStore) Lookup(ctx context.Context, author domain.Identity, key string) (string, bool, error) {
	id, err := s.client.Get(ctx, s.key(author, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, true, nil
}

// Remember records letterID under key. An existing mapping is kept.
func (s *IdempotencyStore) Remember(ctx context.Context, author domain.Identity, key, letterID string) error {
	if err := s.client.SetNX(ctx, s.key(author, key), letterID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

// Forget deletes the mapping stored under key for author.
func (s *IdempotencyStore) Forget(ctx context.Context, author domain.Identity, key string) error {
	if err := s.client.Del(ctx, s.key(author, key)).Err(); err != nil {
		return fmt.Errorf("idempotency forget: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(author domain.Identity, key string) string {
	return fmt.Sprintf("idem:letters:%s:%s", author, key)
}
