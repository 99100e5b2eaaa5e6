package natours

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/internal/limiters"
	"github.com/MrEthical07/natours/internal/rate"
	"github.com/MrEthical07/natours/jwt"
	"github.com/MrEthical07/natours/password"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config   Config
	store    account.Store
	redis    redis.UniversalClient
	notifier Notifier
	welcome  WelcomeSender

	auditSink AuditSink
	logger    *slog.Logger
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. Required.
func (b *Builder) WithStore(store account.Store) *Builder {
	b.store = store
	return b
}

// WithRedis enables the login, signup and reset throttles. Without a
// client the throttles are off.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithNotifier sets the mail transport used for reset links. Required.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithWelcomeSender queues the welcome mail after signup. Optional.
func (b *Builder) WithWelcomeSender(w WelcomeSender) *Builder {
	b.welcome = w
	return b
}

// WithAuditSink receives audit events. Without a sink events are dropped.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for internal failures. Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for token issuance, staleness and reset
// expiry. Tests only.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("account store required")
	}
	if b.notifier == nil {
		return nil, errors.New("notifier required")
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:   cfg,
		store:    b.store,
		notifier: b.notifier,
		welcome:  b.welcome,
		logger:   logger.With(slog.String("component", "natours")),
		clock:    clock,
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if b.redis != nil {
		if cfg.Security.EnableLoginThrottle {
			engine.loginLimiter = rate.New(b.redis, rate.Config{
				EnableIPThrottle:      cfg.Security.EnableIPThrottle,
				MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
				LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
			})
		}
		if cfg.Signup.EnableIdentifierThrottle || cfg.Signup.EnableIPThrottle {
			engine.signupLimiter = limiters.NewSignupLimiter(b.redis, limiters.SignupConfig{
				EnableIdentifierThrottle: cfg.Signup.EnableIdentifierThrottle,
				EnableIPThrottle:         cfg.Signup.EnableIPThrottle,
				MaxAttempts:              cfg.Signup.MaxAttempts,
				Cooldown:                 cfg.Signup.Cooldown,
			})
		}
		if cfg.PasswordReset.EnableIdentifierThrottle || cfg.PasswordReset.EnableIPThrottle {
			engine.resetLimiter = limiters.NewPasswordResetLimiter(b.redis, limiters.PasswordResetConfig{
				EnableIdentifierThrottle: cfg.PasswordReset.EnableIdentifierThrottle,
				EnableIPThrottle:         cfg.PasswordReset.EnableIPThrottle,
				Window:                   cfg.PasswordReset.ThrottleWindow,
				MaxAttempts:              cfg.PasswordReset.MaxAttempts,
			})
		}
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		engine.audit.Close()
		return nil, err
	}
	engine.hasher = hasher

	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.TTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
		VerifyKeys:    cfg.JWT.VerifyKeys,
		Now:           clock,
	})
	if err != nil {
		engine.audit.Close()
		return nil, err
	}
	engine.jwtManager = jm

	engine.dummyHash, err = hasher.Hash("natours-dummy-password")
	if err != nil {
		engine.audit.Close()
		return nil, err
	}

	engine.flows = newFlowService(engine)
	b.built = true

	return engine, nil
}
