package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/logger"
)

// ErrLockNotAcquired is returned when the lock stays held until the context ends.
var ErrLockNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes work per key across service instances.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a locker whose locks expire after ttl if never released.
func NewRedisLocker(client *redis.Client, ttl, retry time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, retry: retry}
}

func lockKey(key string) string {
	return fmt.Sprintf("ledger_lock:%s", key)
}

// Lock blocks until the lock for key is held or ctx is done.
// The returned function releases it.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := lockKey(key)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			logger.Log.Errorw("failed to acquire lock", "key", k, "error", err)
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	return func() {
		// release even if the caller's context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{k}, token).Err(); err != nil {
			logger.Log.Errorw("failed to release lock", "key", k, "error", err)
		}
	}, nil
}
