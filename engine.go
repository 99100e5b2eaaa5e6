package natours

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/internal/flows"
	"github.com/MrEthical07/natours/internal/limiters"
	"github.com/MrEthical07/natours/internal/rate"
	"github.com/MrEthical07/natours/jwt"
	"github.com/MrEthical07/natours/password"
)

// Engine is the account and access-control core. It is immutable after
// Build and safe for concurrent use.
type Engine struct {
	config Config

	store    account.Store
	notifier Notifier
	welcome  WelcomeSender

	hasher     *password.Hasher
	jwtManager *jwt.Manager
	dummyHash  string

	loginLimiter  *rate.Limiter
	signupLimiter *limiters.SignupLimiter
	resetLimiter  *limiters.PasswordResetLimiter

	audit   *auditDispatcher
	metrics *Metrics
	logger  *slog.Logger
	clock   func() time.Time

	flows flows.Service
}

// Close drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// MetricsSnapshot copies the in-process counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// TokenTTL is the session token lifetime. Transports use it for cookie
// expiry.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.JWT.TTL
}

// ProductionMode reports whether internal error detail must be hidden.
func (e *Engine) ProductionMode() bool {
	return e != nil && e.config.Security.ProductionMode
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) logInternal(ctx context.Context, msg string, err error) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.ErrorContext(ctx, msg, slog.Any("error", err), slog.String("ip", clientIPFromContext(ctx)))
}

func newFlowService(e *Engine) flows.Service {
	return flows.New(flows.Deps{
		Signup:         e.signupFlowDeps(),
		Login:          e.loginFlowDeps(),
		PasswordReset:  e.passwordResetFlowDeps(),
		UpdatePassword: e.updatePasswordFlowDeps(),
		Authenticate:   e.authenticateFlowDeps(),
		Profile:        e.profileFlowDeps(),
	})
}

func (e *Engine) sharedFlowDeps() flows.Shared {
	return flows.Shared{
		Now:      e.now,
		ClientIP: clientIPFromContext,
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,
		Metrics:   flowMetrics(),
		Events:    flowEvents(),
		Errors:    flowErrors(),
	}
}

func (e *Engine) issueToken(accountID string) (flows.IssuedToken, error) {
	token, err := e.jwtManager.Issue(accountID)
	if err != nil {
		return flows.IssuedToken{}, err
	}
	return flows.IssuedToken{Value: token.Value, IssuedAt: token.IssuedAt, ExpiresAt: token.ExpiresAt}, nil
}

func (e *Engine) findWithHash(ctx context.Context, id string) (account.Account, error) {
	return e.store.FindByID(ctx, id, true)
}

func (e *Engine) findByEmailWithHash(ctx context.Context, email string) (account.Account, error) {
	return e.store.FindByEmail(ctx, email, true)
}

func toSession(r flows.SessionResult) Session {
	return Session{
		Token:     r.Token.Value,
		IssuedAt:  r.Token.IssuedAt,
		ExpiresAt: r.Token.ExpiresAt,
		Account:   r.Account,
	}
}

// mapThrottleError folds limiter failures into the public sentinels.
// Backend outages wrap ErrThrottleUnavailable and are not operational.
func mapThrottleError(limited error) func(error) error {
	return func(err error) error {
		switch {
		case err == nil:
			return nil
		case errors.Is(err, rate.ErrRateLimited),
			errors.Is(err, limiters.ErrSignupRateLimited),
			errors.Is(err, limiters.ErrResetRateLimited):
			return flows.Fail(limited, "too many requests, please try again later")
		case errors.Is(err, rate.ErrRedisUnavailable),
			errors.Is(err, limiters.ErrSignupRedisUnavailable),
			errors.Is(err, limiters.ErrResetRedisUnavailable):
			return errors.Join(ErrThrottleUnavailable, err)
		default:
			return err
		}
	}
}
