// Package authinfra provides the Redis-backed verifier store for
// multi-node deployments.
package authinfra

import (
	"context"
	"time"

	"github.com/chriswk/auth-app/pkg/iam/auth"
	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "authstate:"

// RedisStateStore implements auth.StateStore on Redis. SET NX gives the
// insert-if-absent semantics, GETDEL the atomic take, and the key TTL the
// eviction of abandoned attempts.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore creates a store evicting entries after ttl.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{
		client: client,
		ttl:    ttl,
	}
}

// Insert stores state → verifier unless the state is already pending.
func (s *RedisStateStore) Insert(ctx context.Context, state, verifier string) error {
	ok, err := s.client.SetNX(ctx, stateKeyPrefix+state, verifier, s.ttl).Result()
	if err != nil {
		return auth.ErrStateUnavailable(err)
	}
	if !ok {
		return auth.ErrRegistry.New(auth.CodeStateCollision)
	}
	return nil
}

// TakeOnce atomically removes and returns the verifier for state. GETDEL is
// a single command, so concurrent callbacks for the same state cannot both
// observe the value.
func (s *RedisStateStore) TakeOnce(ctx context.Context, state string) (string, bool, error) {
	verifier, err := s.client.GetDel(ctx, stateKeyPrefix+state).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, auth.ErrStateUnavailable(err)
	}
	return verifier, true, nil
}
