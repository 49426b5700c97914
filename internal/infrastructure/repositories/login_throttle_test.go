package repositories

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupThrottle(t *testing.T, max int, window time.Duration) (*miniredis.Miniredis, *LoginThrottleImpl) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewLoginThrottle(client, max, window).(*LoginThrottleImpl)
}

func attempt(t *testing.T, throttle *LoginThrottleImpl, key string) bool {
	t.Helper()
	ok, err := throttle.Attempt(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestLoginThrottle_BlocksAtThreshold(t *testing.T) {
	_, throttle := setupThrottle(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, attempt(t, throttle, "a@x.com"), "attempt %d", i+1)
	}
	assert.False(t, attempt(t, throttle, "a@x.com"))
	assert.True(t, attempt(t, throttle, "b@x.com"), "keys are independent")
}

func TestLoginThrottle_ConcurrentAttempts(t *testing.T) {
	const max = 5
	_, throttle := setupThrottle(t, max, time.Minute)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := throttle.Attempt(context.Background(), "burst@x.com")
			if err == nil && ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(max), allowed.Load())
}

func TestLoginThrottle_WindowExpires(t *testing.T) {
	mr, throttle := setupThrottle(t, 2, time.Minute)

	assert.True(t, attempt(t, throttle, "a@x.com"))
	assert.True(t, attempt(t, throttle, "a@x.com"))
	assert.Equal(t, time.Minute, mr.TTL("login:attempts:a@x.com"))
	assert.False(t, attempt(t, throttle, "a@x.com"))

	mr.FastForward(time.Minute + time.Second)

	assert.True(t, attempt(t, throttle, "a@x.com"))
}

func TestLoginThrottle_WindowStartsAtFirstAttempt(t *testing.T) {
	mr, throttle := setupThrottle(t, 5, time.Minute)

	attempt(t, throttle, "a@x.com")
	mr.FastForward(30 * time.Second)
	attempt(t, throttle, "a@x.com")

	assert.Equal(t, 30*time.Second, mr.TTL("login:attempts:a@x.com"))
}

func TestLoginThrottle_Reset(t *testing.T) {
	mr, throttle := setupThrottle(t, 1, time.Minute)
	ctx := context.Background()

	assert.True(t, attempt(t, throttle, "a@x.com"))
	assert.False(t, attempt(t, throttle, "a@x.com"))

	require.NoError(t, throttle.Reset(ctx, "a@x.com"))
	assert.False(t, mr.Exists("login:attempts:a@x.com"))

	assert.True(t, attempt(t, throttle, "a@x.com"))
}

func TestLoginThrottle_RedisDown(t *testing.T) {
	mr, throttle := setupThrottle(t, 3, time.Minute)
	mr.Close()

	_, err := throttle.Attempt(context.Background(), "a@x.com")
	assert.Error(t, err)
	assert.Error(t, throttle.Reset(context.Background(), "a@x.com"))
}
