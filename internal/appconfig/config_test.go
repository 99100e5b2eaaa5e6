package appconfig

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{
		"APP_ENV", "PORT", "JWT_EXPIRES_IN", "JWT_COOKIE_EXPIRES_IN", "MONGO_URI",
		"MONGO_DATABASE", "REDIS_URL", "QUEUE_REDIS_URL", "SMTP_HOST", "SMTP_PORT",
		"SMTP_USERNAME", "SMTP_PASSWORD", "EMAIL_FROM", "CORS_ALLOWED_ORIGINS", "PUBLIC_BASE_URL",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("JWT_SECRET", "a-very-long-secret-for-tests-only-0123456789")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Production() || cfg.Port != "3000" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.JWTExpiresIn != 90*24*time.Hour || cfg.JWTCookieExpireIn != cfg.JWTExpiresIn {
		t.Fatalf("unexpected lifetimes: %v %v", cfg.JWTExpiresIn, cfg.JWTCookieExpireIn)
	}
	if cfg.SMTPPort != 587 || cfg.MongoDatabase != "natours" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("JWT_COOKIE_EXPIRES_IN", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("PUBLIC_BASE_URL", "https://natours.test/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JWTExpiresIn != 2*time.Hour || cfg.JWTCookieExpireIn != 7*24*time.Hour {
		t.Fatalf("unexpected lifetimes: %v %v", cfg.JWTExpiresIn, cfg.JWTCookieExpireIn)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.PublicBaseURL != "https://natours.test" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.PublicBaseURL)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"no secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"bad env", map[string]string{"APP_ENV": "staging"}, "APP_ENV"},
		{"bad port", map[string]string{"SMTP_PORT": "x"}, "SMTP_PORT"},
		{"bad ttl", map[string]string{"JWT_EXPIRES_IN": "soon"}, "JWT_EXPIRES_IN"},
		{"production without smtp", map[string]string{"APP_ENV": "production"}, "SMTP_HOST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"90d": 90 * 24 * time.Hour,
		"90":  90 * 24 * time.Hour,
		"15m": 15 * time.Minute,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil || got != want {
			t.Fatalf("ParseDuration(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDuration("xd"); err == nil {
		t.Fatal("expected error")
	}
}
