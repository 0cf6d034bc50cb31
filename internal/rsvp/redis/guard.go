package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	idempotencyPrefix = "rsvp_idem:"
	pendingPrefix     = "pending:"
	donePrefix        = "done:"

	DefaultIdempotencyTTL = 10 * time.Minute
)

// SubmissionGuard claims an idempotency key with SetNX. While a claim is
// pending or done, a second claim for the same key fails.
type SubmissionGuard struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSubmissionGuard(client *redis.Client, ttl time.Duration) *SubmissionGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &SubmissionGuard{Client: client, TTL: ttl}
}

func (g *SubmissionGuard) Claim(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.Client.SetNX(ctx, idempotencyPrefix+key, pendingPrefix+token, g.TTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Complete marks a pending claim as done, keeping its remaining TTL.
func (g *SubmissionGuard) Complete(ctx context.Context, key, token, rsvpID string) error {
	k := idempotencyPrefix + key
	val, err := g.Client.Get(ctx, k).Result()
	if err == redis.Nil {
		return nil // expired
	}
	if err != nil {
		return err
	}
	if val != pendingPrefix+token {
		return nil
	}

	ttl, err := g.Client.TTL(ctx, k).Result()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = g.TTL
	}
	return g.Client.Set(ctx, k, donePrefix+rsvpID, ttl).Err()
}

// Release drops a pending claim owned by token so the guest can resubmit.
func (g *SubmissionGuard) Release(ctx context.Context, key, token string) error {
	k := idempotencyPrefix + key
	val, err := g.Client.Get(ctx, k).Result()
	if err == redis.Nil {
		return nil // already released
	}
	if err != nil {
		return err
	}
	if val == pendingPrefix+token {
		return g.Client.Del(ctx, k).Err()
	}
	return nil
}

// Lookup returns the response id stored for a completed key, or "" when the
// key is unknown or still pending.
func (g *SubmissionGuard) Lookup(ctx context.Context, key string) (string, error) {
	val, err := g.Client.Get(ctx, idempotencyPrefix+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if id, ok := strings.CutPrefix(val, donePrefix); ok {
		return id, nil
	}
	return "", nil
}
