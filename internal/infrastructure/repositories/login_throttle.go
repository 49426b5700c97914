package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/otams/domain"
)

// attemptScript counts one attempt and starts the window on the first, in a
// single server-side step
var attemptScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// LoginThrottleImpl implements domain.LoginThrottle with a fixed-window
// counter per key in Redis
type LoginThrottleImpl struct {
	client      redis.Cmdable
	prefix      string
	maxAttempts int64
	window      time.Duration
}

// NewLoginThrottle creates a redis-backed login throttle admitting maxAttempts
// attempts per key in each window
func NewLoginThrottle(client redis.Cmdable, maxAttempts int, window time.Duration) domain.LoginThrottle {
	return &LoginThrottleImpl{
		client:      client,
		prefix:      "login:attempts:",
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

// Attempt implements domain.LoginThrottle. The window starts at the first attempt.
func (t *LoginThrottleImpl) Attempt(ctx context.Context, key string) (bool, error) {
	n, err := attemptScript.Run(ctx, t.client, []string{t.prefix + key}, t.window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n <= t.maxAttempts, nil
}

// Reset implements domain.LoginThrottle
func (t *LoginThrottleImpl) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.prefix+key).Err()
}
