package natours

import (
	"testing"
	"time"
)

func TestDefaultConfigNeedsOnlyASecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing secret to fail validation")
	}
	cfg.JWT.PrivateKey = testSecret
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
	if cfg.PasswordReset.ResetTTL != 10*time.Minute {
		t.Fatalf("expected 10m reset TTL, got %v", cfg.PasswordReset.ResetTTL)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"zero ttl":          func(c *Config) { c.JWT.TTL = 0 },
		"unknown method":    func(c *Config) { c.JWT.SigningMethod = "rs256" },
		"ed25519 no key":    func(c *Config) { c.JWT.SigningMethod = "ed25519"; c.JWT.PublicKey = nil },
		"huge leeway":       func(c *Config) { c.JWT.Leeway = time.Hour },
		"tiny memory":       func(c *Config) { c.Password.Memory = 1024 },
		"short salt":        func(c *Config) { c.Password.SaltLength = 8 },
		"long reset ttl":    func(c *Config) { c.PasswordReset.ResetTTL = 2 * time.Hour },
		"no delivery limit": func(c *Config) { c.PasswordReset.DeliveryTimeout = 0 },
		"login throttle":    func(c *Config) { c.Security.MaxLoginAttempts = 0 },
		"signup throttle":   func(c *Config) { c.Signup.Cooldown = 0 },
		"audit buffer":      func(c *Config) { c.Audit.BufferSize = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Audit.Enabled = true
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigCopiesKeys(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.PrivateKey = append([]byte(nil), testSecret...)
	cfg.JWT.VerifyKeys = map[string][]byte{"k1": []byte("abc")}

	clone := cloneConfig(cfg)
	cfg.JWT.PrivateKey[0] = 'X'
	cfg.JWT.VerifyKeys["k1"][0] = 'X'

	if clone.JWT.PrivateKey[0] == 'X' || clone.JWT.VerifyKeys["k1"][0] == 'X' {
		t.Fatal("clone shares key memory with source")
	}
}
