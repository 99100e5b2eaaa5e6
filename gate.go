package natours

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/internal/flows"
	"github.com/MrEthical07/natours/jwt"
)

// Access is the state a gate pipeline builds up for one request.
type Access struct {
	Token   string
	Claims  *TokenClaims
	Account *account.Account
}

// Check is one gate step. A non-nil error stops the pipeline.
type Check func(ctx context.Context, a *Access) error

// Pipeline runs checks in order.
type Pipeline []Check

// Run applies every check to a, stopping at the first error.
func (p Pipeline) Run(ctx context.Context, a *Access) error {
	if a == nil {
		return ErrEngineNotReady
	}
	for _, check := range p {
		if err := check(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// VerifyToken checks the token signature and lifetime and fills
// Access.Claims.
func (e *Engine) VerifyToken() Check {
	return func(ctx context.Context, a *Access) error {
		if !e.ready() {
			return ErrEngineNotReady
		}
		claims, err := e.flows.VerifyToken(ctx, a.Token)
		if err != nil {
			return err
		}
		c := TokenClaims(claims)
		a.Claims = &c
		return nil
	}
}

// ResolveAccount loads the active account named by the claims and rejects
// tokens issued before its latest password change.
func (e *Engine) ResolveAccount() Check {
	return func(ctx context.Context, a *Access) error {
		if !e.ready() {
			return ErrEngineNotReady
		}
		if a.Claims == nil {
			return flows.Fail(ErrNotAuthenticated, "you are not logged in, please log in to get access")
		}
		acct, err := e.flows.ResolveAccount(ctx, flows.TokenClaims(*a.Claims))
		if err != nil {
			return err
		}
		a.Account = &acct
		return nil
	}
}

// RestrictTo admits only accounts whose role is in roles. There is no
// hierarchy; an empty set admits nobody.
func (e *Engine) RestrictTo(roles account.RoleSet) Check {
	return func(ctx context.Context, a *Access) error {
		if a.Account == nil {
			return flows.Fail(ErrNotAuthenticated, "you are not logged in, please log in to get access")
		}
		if roles.Contains(a.Account.Role) {
			return nil
		}
		err := flows.Fail(ErrForbidden, "you do not have permission to perform this action")
		e.metricInc(MetricAccessDenied)
		e.emitAudit(ctx, auditEventAccessDenied, false, a.Account.ID, err, func() map[string]string {
			return map[string]string{"role": a.Account.Role.String()}
		})
		return err
	}
}

// Protect is VerifyToken then ResolveAccount, followed by extra checks
// such as RestrictTo.
func (e *Engine) Protect(extra ...Check) Pipeline {
	p := Pipeline{e.VerifyToken(), e.ResolveAccount()}
	return append(p, extra...)
}

// Authorize runs p against token and records the gate latency.
func (e *Engine) Authorize(ctx context.Context, token string, p Pipeline) (*Access, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	access := &Access{Token: token}
	err := p.Run(ctx, access)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricGateLatency, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return access, nil
}

// CurrentAccount is the soft gate: it returns the logged-in account, or
// nil when the token is absent, invalid, stale or its account is gone.
func (e *Engine) CurrentAccount(ctx context.Context, token string) *account.Account {
	if token == "" || !e.ready() {
		return nil
	}
	access, err := e.Authorize(ctx, token, e.Protect())
	if err != nil {
		if !IsOperational(err) {
			e.logger.WarnContext(ctx, "soft gate", slog.Any("error", err))
		}
		return nil
	}
	return access.Account
}

func (e *Engine) authenticateFlowDeps() flows.AuthenticateDeps {
	return flows.AuthenticateDeps{
		Shared: e.sharedFlowDeps(),
		ParseToken: func(raw string) (flows.TokenClaims, error) {
			claims, err := e.jwtManager.Parse(raw)
			if err != nil {
				return flows.TokenClaims{}, err
			}
			out := flows.TokenClaims{AccountID: claims.AccountID, TokenID: claims.ID, IssuedAt: claims.IssuedAtTime()}
			if claims.ExpiresAt != nil {
				out.ExpiresAt = claims.ExpiresAt.Time.UTC()
			}
			return out, nil
		},
		IsExpired: func(err error) bool {
			return errors.Is(err, jwt.ErrExpiredToken)
		},
		FindByID: func(ctx context.Context, id string) (account.Account, error) {
			return e.store.FindByID(ctx, id, false)
		},
	}
}
