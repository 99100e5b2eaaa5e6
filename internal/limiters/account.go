package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/natours/internal/rate"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrSignupRateLimited is returned when the signup budget is spent.
	ErrSignupRateLimited = errors.New("signup rate limited")
	// ErrSignupRedisUnavailable wraps Redis failures.
	ErrSignupRedisUnavailable = errors.New("signup redis unavailable")
)

// SignupConfig tunes the signup throttle.
type SignupConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	MaxAttempts              int
	Cooldown                 time.Duration
}

// SignupLimiter counts signup attempts.
type SignupLimiter struct {
	window *rate.Window
	config SignupConfig
}

// NewSignupLimiter wraps client.
func NewSignupLimiter(client redis.UniversalClient, cfg SignupConfig) *SignupLimiter {
	return &SignupLimiter{window: rate.NewWindow(client), config: cfg}
}

// Enforce records one signup attempt for email and ip.
func (l *SignupLimiter) Enforce(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	if l.config.EnableIdentifierThrottle && email != "" {
		if err := l.enforce(ctx, "nsu:"+email); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforce(ctx, "nsuip:"+ip); err != nil {
			return err
		}
	}
	return nil
}

func (l *SignupLimiter) enforce(ctx context.Context, key string) error {
	return mapWindowErr(
		l.window.Enforce(ctx, key, l.config.Cooldown, l.config.MaxAttempts),
		ErrSignupRateLimited,
		ErrSignupRedisUnavailable,
	)
}

func mapWindowErr(err, limited, unavailable error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return limited
	case errors.Is(err, rate.ErrRedisUnavailable):
		return fmt.Errorf("%w: %v", unavailable, err)
	default:
		return err
	}
}
