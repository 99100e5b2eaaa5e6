package limiters

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/natours/internal/rate"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrResetRateLimited is returned when the reset budget is spent.
	ErrResetRateLimited = errors.New("reset rate limited")
	// ErrResetRedisUnavailable wraps Redis failures.
	ErrResetRedisUnavailable = errors.New("reset redis unavailable")
)

// PasswordResetConfig tunes the reset throttle.
type PasswordResetConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	Window                   time.Duration
	MaxAttempts              int
}

// PasswordResetLimiter counts forgot-password requests and reset attempts.
type PasswordResetLimiter struct {
	window *rate.Window
	config PasswordResetConfig
}

// NewPasswordResetLimiter wraps client.
func NewPasswordResetLimiter(client redis.UniversalClient, cfg PasswordResetConfig) *PasswordResetLimiter {
	return &PasswordResetLimiter{window: rate.NewWindow(client), config: cfg}
}

// CheckRequest records one forgot-password request.
func (l *PasswordResetLimiter) CheckRequest(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	if l.config.EnableIdentifierThrottle && email != "" {
		if err := l.enforce(ctx, "npr:"+email); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforce(ctx, "nprip:"+ip); err != nil {
			return err
		}
	}
	return nil
}

// CheckConfirm records one reset-password attempt. Tokens are not known
// before lookup, so only the IP is counted.
func (l *PasswordResetLimiter) CheckConfirm(ctx context.Context, ip string) error {
	if l == nil || !l.config.EnableIPThrottle || ip == "" {
		return nil
	}
	return l.enforce(ctx, "nprcip:"+ip)
}

// Window returns the configured window length.
func (l *PasswordResetLimiter) Window() time.Duration {
	if l == nil {
		return 0
	}
	return l.config.Window
}

func (l *PasswordResetLimiter) enforce(ctx context.Context, key string) error {
	return mapWindowErr(
		l.window.Enforce(ctx, key, l.config.Window, l.config.MaxAttempts),
		ErrResetRateLimited,
		ErrResetRedisUnavailable,
	)
}
