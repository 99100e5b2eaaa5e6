// Package appconfig loads process settings for the natours binaries from
// env files and environment variables.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration.
type Config struct {
	Env  string // "development" or "production"
	Port string

	JWTSecret         string
	JWTExpiresIn      time.Duration
	JWTCookieExpireIn time.Duration

	MongoURI      string
	MongoDatabase string

	RedisURL      string // throttles; empty disables them
	QueueRedisURL string // welcome mail queue; empty sends nothing

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	CORSAllowedOrigins []string
	PublicBaseURL      string
}

// Production reports whether APP_ENV selects production.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env and config.env from the working directory or its parent
// (missing files are skipped), then the environment, which wins.
func Load() (*Config, error) {
	loadEnvFiles()

	cfg := &Config{
		Env:           strings.ToLower(getEnv("APP_ENV", "development")),
		Port:          getEnv("PORT", "3000"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "natours"),
		RedisURL:      os.Getenv("REDIS_URL"),
		QueueRedisURL: os.Getenv("QUEUE_REDIS_URL"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		EmailFrom:     getEnv("EMAIL_FROM", "Natours <hello@natours.io>"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
	}

	var err error
	if cfg.JWTExpiresIn, err = getEnvAsDuration("JWT_EXPIRES_IN", 90*24*time.Hour); err != nil {
		return nil, err
	}
	// A bare number here counts days.
	if cfg.JWTCookieExpireIn, err = getEnvAsDuration("JWT_COOKIE_EXPIRES_IN", cfg.JWTExpiresIn); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getEnvAsInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles() {
	for _, name := range []string{".env", "config.env"} {
		if err := godotenv.Load(name); err == nil {
			continue
		}
		cwd, err := os.Getwd()
		if err != nil {
			continue
		}
		if parent := filepath.Dir(cwd); parent != cwd {
			_ = godotenv.Load(filepath.Join(parent, name))
		}
	}
}

// Validate enforces production requirements. Development runs with
// in-process fallbacks for everything but the signing secret.
func (c *Config) Validate() error {
	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("APP_ENV must be development or production, got %q", c.Env)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	if c.Production() {
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required in production")
		}
		if c.SMTPHost == "" {
			return errors.New("SMTP_HOST is required in production")
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue, nil
	}
	d, err := ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// ParseDuration accepts Go durations plus a day suffix ("90d"). A bare
// integer is a number of days.
func ParseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
