package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	client := setupRedis(t)
	locker := NewRedisLocker(client, 5*time.Second, 10*time.Millisecond)

	t.Run("second holder waits for release", func(t *testing.T) {
		ctx := context.Background()

		unlock, err := locker.Lock(ctx, "alice@example.com")
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			unlock2, err := locker.Lock(ctx, "alice@example.com")
			if err == nil {
				close(acquired)
				unlock2()
			}
		}()

		select {
		case <-acquired:
			t.Fatal("lock acquired while held")
		case <-time.After(100 * time.Millisecond):
		}

		unlock()

		select {
		case <-acquired:
		case <-time.After(2 * time.Second):
			t.Fatal("lock not acquired after release")
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		ctx := context.Background()

		unlockA, err := locker.Lock(ctx, "a@example.com")
		require.NoError(t, err)
		defer unlockA()

		unlockB, err := locker.Lock(ctx, "b@example.com")
		require.NoError(t, err)
		unlockB()
	})

	t.Run("context deadline", func(t *testing.T) {
		unlock, err := locker.Lock(context.Background(), "busy@example.com")
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = locker.Lock(ctx, "busy@example.com")
		assert.ErrorIs(t, err, ErrLockNotAcquired)
	})

	t.Run("stale release keeps the new holder", func(t *testing.T) {
		short := NewRedisLocker(client, 100*time.Millisecond, 10*time.Millisecond)
		ctx := context.Background()

		staleUnlock, err := short.Lock(ctx, "expiring@example.com")
		require.NoError(t, err)

		time.Sleep(200 * time.Millisecond)

		unlock, err := locker.Lock(ctx, "expiring@example.com")
		require.NoError(t, err)
		defer unlock()

		staleUnlock()

		exists, err := client.Exists(ctx, lockKey("expiring@example.com")).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
	})

	t.Run("serializes concurrent holders", func(t *testing.T) {
		ctx := context.Background()
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			maxSeen int
		)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, "shared@example.com")
				if err != nil {
					return
				}
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				unlock()
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxSeen)
	})
}
