package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunLockRepository guards a pipeline run against overlapping runs in other processes.
type RunLockRepository interface {
	// Acquire returns a release func, or ok=false if another holder owns the lock.
	Acquire(ctx context.Context) (release func(context.Context) error, ok bool, err error)
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisRunLockRepository creates a lock stored under key with the given TTL.
func NewRedisRunLockRepository(client *redis.Client, key string, ttl time.Duration) RunLockRepository {
	return &redisRunLockRepository{client: client, key: key, ttl: ttl}
}

type redisRunLockRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func (r *redisRunLockRepository) Acquire(ctx context.Context) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release run lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}

// NewNoopRunLockRepository returns a lock that is always granted.
func NewNoopRunLockRepository() RunLockRepository {
	return noopRunLockRepository{}
}

type noopRunLockRepository struct{}

func (noopRunLockRepository) Acquire(context.Context) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}
