package natours

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestLoginThrottle(t *testing.T) {
	mr, rdb := newTestRedis(t)
	env := newTestEnv(t, func(b *Builder) {
		cfg := testConfig()
		cfg.Security.MaxLoginAttempts = 3
		cfg.Security.EnableIPThrottle = false
		b.WithConfig(cfg).WithRedis(rdb)
	})
	env.signup(t, "a@b.com", "secret123")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.engine.Login(ctx, "a@b.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := env.engine.Login(ctx, "a@b.com", "secret123"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
	if !IsOperational(ErrLoginRateLimited) {
		t.Fatal("rate limit should be operational")
	}

	mr.FastForward(16 * time.Minute)
	if _, err := env.engine.Login(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatalf("login after cooldown failed: %v", err)
	}
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	_, rdb := newTestRedis(t)
	env := newTestEnv(t, func(b *Builder) {
		cfg := testConfig()
		cfg.Security.MaxLoginAttempts = 2
		cfg.Security.EnableIPThrottle = false
		b.WithConfig(cfg).WithRedis(rdb)
	})
	env.signup(t, "a@b.com", "secret123")
	ctx := context.Background()

	env.engine.Login(ctx, "a@b.com", "wrong")
	if _, err := env.engine.Login(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	env.engine.Login(ctx, "a@b.com", "wrong")
	if _, err := env.engine.Login(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatalf("expected counter reset by success, got %v", err)
	}
}

func TestSignupThrottlePerIP(t *testing.T) {
	_, rdb := newTestRedis(t)
	env := newTestEnv(t, func(b *Builder) {
		cfg := testConfig()
		cfg.Signup.MaxAttempts = 2
		b.WithConfig(cfg).WithRedis(rdb)
	})
	ctx := WithClientIP(context.Background(), "198.51.100.1")

	for i, email := range []string{"a@b.com", "b@b.com"} {
		if _, err := env.engine.Signup(ctx, SignupRequest{Name: "N", Email: email, Password: "secret123", PasswordConfirm: "secret123"}); err != nil {
			t.Fatalf("signup %d failed: %v", i, err)
		}
	}
	_, err := env.engine.Signup(ctx, SignupRequest{Name: "N", Email: "c@b.com", Password: "secret123", PasswordConfirm: "secret123"})
	if !errors.Is(err, ErrSignupRateLimited) {
		t.Fatalf("expected ErrSignupRateLimited, got %v", err)
	}
}

func TestForgotPasswordThrottle(t *testing.T) {
	_, rdb := newTestRedis(t)
	env := newTestEnv(t, func(b *Builder) {
		cfg := testConfig()
		cfg.PasswordReset.MaxAttempts = 2
		b.WithConfig(cfg).WithRedis(rdb)
	})
	env.signup(t, "a@b.com", "secret123")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := env.engine.ForgotPassword(ctx, "a@b.com", resetBase); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if err := env.engine.ForgotPassword(ctx, "a@b.com", resetBase); !errors.Is(err, ErrPasswordResetRateLimited) {
		t.Fatalf("expected ErrPasswordResetRateLimited, got %v", err)
	}
}

func TestThrottleBackendDownIsNotOperational(t *testing.T) {
	mr, rdb := newTestRedis(t)
	env := newTestEnv(t, withRedis(rdb))
	env.signup(t, "a@b.com", "secret123")
	mr.Close()

	_, err := env.engine.Login(context.Background(), "a@b.com", "secret123")
	if !errors.Is(err, ErrThrottleUnavailable) {
		t.Fatalf("expected ErrThrottleUnavailable, got %v", err)
	}
	if IsOperational(err) {
		t.Fatal("backend outage must not be operational")
	}
}
