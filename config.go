package natours

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/natours/jwt"
)

// Config is the engine configuration. It is cloned on Build and never
// mutated afterwards.
type Config struct {
	JWT           JWTConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	Signup        SignupConfig
	Security      SecurityConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures session token signing.
type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig controls the reset-token lifecycle.
type PasswordResetConfig struct {
	ResetTTL        time.Duration
	DeliveryTimeout time.Duration

	// Throttles apply only when the engine has Redis.
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	MaxAttempts              int
	ThrottleWindow           time.Duration
}

/*
====================================
SIGNUP CONFIG
====================================
*/

// SignupConfig throttles self-service account creation.
type SignupConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	MaxAttempts              int
	Cooldown                 time.Duration
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds the login throttle and the deployment posture.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	// ProductionMode hides internal error detail from callers.
	ProductionMode bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a working configuration lacking only the signing
// key.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TTL:           90 * 24 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
			Issuer:        "natours",
			Leeway:        5 * time.Second,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           1,
			Parallelism:    4,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		PasswordReset: PasswordResetConfig{
			ResetTTL:                 10 * time.Minute,
			DeliveryTimeout:          10 * time.Second,
			EnableIdentifierThrottle: true,
			EnableIPThrottle:         true,
			MaxAttempts:              5,
			ThrottleWindow:           15 * time.Minute,
		},
		Signup: SignupConfig{
			EnableIPThrottle: true,
			MaxAttempts:      10,
			Cooldown:         time.Hour,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			EnableIPThrottle:      true,
			MaxLoginAttempts:      10,
			LoginCooldownDuration: 15 * time.Minute,
			ProductionMode:        true,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	if cfg.JWT.VerifyKeys != nil {
		out.JWT.VerifyKeys = make(map[string][]byte, len(cfg.JWT.VerifyKeys))
		for kid, key := range cfg.JWT.VerifyKeys {
			out.JWT.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.JWT.PrivateKey) < jwt.MinSecretLength {
			return fmt.Errorf("hs256 requires a PrivateKey of at least %d bytes", jwt.MinSecretLength)
		}
	case jwt.MethodEd25519:
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 && len(c.JWT.VerifyKeys) == 0 {
			return errors.New("ed25519 requires PublicKey or VerifyKeys")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Password reset
	if c.PasswordReset.ResetTTL <= 0 || c.PasswordReset.ResetTTL > time.Hour {
		return errors.New("PasswordReset ResetTTL must be in (0, 1h]")
	}
	if c.PasswordReset.DeliveryTimeout <= 0 {
		return errors.New("PasswordReset DeliveryTimeout must be > 0")
	}
	if (c.PasswordReset.EnableIdentifierThrottle || c.PasswordReset.EnableIPThrottle) &&
		(c.PasswordReset.MaxAttempts <= 0 || c.PasswordReset.ThrottleWindow <= 0) {
		return errors.New("PasswordReset throttle requires MaxAttempts and ThrottleWindow > 0")
	}

	// Signup
	if (c.Signup.EnableIdentifierThrottle || c.Signup.EnableIPThrottle) &&
		(c.Signup.MaxAttempts <= 0 || c.Signup.Cooldown <= 0) {
		return errors.New("Signup throttle requires MaxAttempts and Cooldown > 0")
	}

	// Security
	if c.Security.EnableLoginThrottle &&
		(c.Security.MaxLoginAttempts <= 0 || c.Security.LoginCooldownDuration <= 0) {
		return errors.New("login throttle requires MaxLoginAttempts and LoginCooldownDuration > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
