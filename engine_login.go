package natours

import (
	"context"

	"github.com/MrEthical07/natours/internal/flows"
)

// Login checks email and password and issues a session token. An unknown
// email and a wrong password fail identically.
func (e *Engine) Login(ctx context.Context, email, password string) (Session, error) {
	if !e.ready() {
		return Session{}, ErrEngineNotReady
	}
	res, err := e.flows.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return toSession(res), nil
}

// Logout records the event. Tokens are stateless, so the transport clearing
// the cookie is the whole effect.
func (e *Engine) Logout(ctx context.Context, accountID string) {
	if e == nil {
		return
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, accountID, nil, nil)
}

func (e *Engine) loginFlowDeps() flows.LoginDeps {
	deps := flows.LoginDeps{
		Shared:          e.sharedFlowDeps(),
		MapLimiterError: mapThrottleError(ErrLoginRateLimited),
		FindByEmail:     e.findByEmailWithHash,
		VerifyPassword:  e.hasher.Verify,
		DummyVerify: func(plain string) {
			_, _ = e.hasher.Verify(plain, e.dummyHash)
		},
		IssueToken:     e.issueToken,
		OnInternalFail: e.logInternal,
	}
	if e.loginLimiter != nil {
		deps.CheckLimiter = e.loginLimiter.CheckLogin
		deps.RecordFailure = e.loginLimiter.RecordFailure
		deps.ResetLimiter = e.loginLimiter.ResetLogin
	}
	if e.config.Password.UpgradeOnLogin {
		deps.NeedsUpgrade = func(encoded string) bool {
			upgrade, err := e.hasher.NeedsUpgrade(encoded)
			return err == nil && upgrade
		}
		deps.HashPassword = e.hasher.Hash
		deps.UpdateAccount = e.store.Update
	}
	return deps
}
