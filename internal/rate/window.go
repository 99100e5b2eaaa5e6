package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Window counts hits per key in fixed windows.
type Window struct {
	redis redis.UniversalClient
}

// NewWindow wraps a Redis client.
func NewWindow(client redis.UniversalClient) *Window {
	return &Window{redis: client}
}

// Hit increments key and returns the new count. The window starts on the
// first hit.
func (w *Window) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := w.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		// NX keeps the window anchored on the first hit and repairs a key
		// that lost its TTL.
		pipe.Do(ctx, "pexpire", key, window.Milliseconds(), "nx")
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return incr.Val(), nil
}

// Enforce records a hit and fails once count exceeds limit.
func (w *Window) Enforce(ctx context.Context, key string, window time.Duration, limit int) error {
	count, err := w.Hit(ctx, key, window)
	if err != nil {
		return err
	}
	if count > int64(limit) {
		return ErrRateLimited
	}
	return nil
}

// Count returns the current count without recording a hit.
func (w *Window) Count(ctx context.Context, key string) (int64, error) {
	count, err := w.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

// Clear drops the given keys.
func (w *Window) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := w.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
