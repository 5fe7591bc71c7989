package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold a key.
	pendingTTL    = time.Minute
	pendingMarker = "pending"
)

// IdempotencyStore remembers which task an Idempotency-Key produced.
// Key format: idem:task:<owner_id>:<key>
type IdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given client.
func NewIdempotencyStore(client redis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Reserve claims key with SETNX. A losing caller gets the stored task id, or
// an empty id while the winner has not completed yet.
func (s *IdempotencyStore) Reserve(ctx context.Context, ownerID, key string) (bool, string, error) {
	k := s.key(ownerID, key)
	ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
	if err != nil {
		return false, "", fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return true, "", nil
	}

	id, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls; the caller retries as in flight.
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("idempotency lookup: %w", err)
	}
	if id == pendingMarker {
		return false, "", nil
	}
	return false, id, nil
}

// Complete stores taskID under key for the full retention window.
func (s *IdempotencyStore) Complete(ctx context.Context, ownerID, key, taskID string) error {
	if err := s.client.Set(ctx, s.key(ownerID, key), taskID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a claim so the key can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, ownerID, key string) error {
	if err := s.client.Del(ctx, s.key(ownerID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(ownerID, key string) string {
	return fmt.Sprintf("idem:task:%s:%s", ownerID, key)
}
