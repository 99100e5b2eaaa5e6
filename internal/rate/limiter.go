package rate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds login throttle tuning.
type Config struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// Limiter throttles failed logins per email and per client IP.
type Limiter struct {
	window *Window
	config Config
}

// New creates a login Limiter backed by client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{window: NewWindow(client), config: cfg}
}

// CheckLogin fails with ErrRateLimited once the failure budget for the
// email, or for the IP when enabled, is spent.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	for _, key := range l.keys(email, ip) {
		count, err := l.window.Count(ctx, key)
		if err != nil {
			return err
		}
		if count >= int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// RecordFailure counts one failed login.
func (l *Limiter) RecordFailure(ctx context.Context, email, ip string) error {
	for _, key := range l.keys(email, ip) {
		if _, err := l.window.Hit(ctx, key, l.config.LoginCooldownDuration); err != nil {
			return err
		}
	}
	return nil
}

// ResetLogin clears the email counter after a successful login. The IP
// counter is left to expire.
func (l *Limiter) ResetLogin(ctx context.Context, email string) error {
	return l.window.Clear(ctx, loginEmailKey(email))
}

// Attempts returns the failure count recorded for email.
func (l *Limiter) Attempts(ctx context.Context, email string) (int, error) {
	count, err := l.window.Count(ctx, loginEmailKey(email))
	return int(count), err
}

func (l *Limiter) keys(email, ip string) []string {
	keys := []string{loginEmailKey(email)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, loginIPKey(ip))
	}
	return keys
}

func loginEmailKey(email string) string { return "nl:" + email }

func loginIPKey(ip string) string { return "nli:" + ip }
