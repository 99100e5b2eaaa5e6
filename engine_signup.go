package natours

import (
	"context"
	"log/slog"

	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/internal/flows"
	"github.com/MrEthical07/natours/password"
)

// Signup creates an account with the default role and logs it in.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	if !e.ready() {
		return Session{}, ErrEngineNotReady
	}
	res, err := e.flows.Signup(ctx, flows.SignupRequest{
		Name:            req.Name,
		Email:           req.Email,
		Photo:           req.Photo,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return Session{}, err
	}
	return toSession(res), nil
}

func (e *Engine) signupFlowDeps() flows.SignupDeps {
	deps := flows.SignupDeps{
		Shared:              e.sharedFlowDeps(),
		MapLimiterError:     mapThrottleError(ErrSignupRateLimited),
		CheckPasswordPolicy: password.CheckPolicy,
		HashPassword:        e.hasher.Hash,
		CreateAccount:       e.store.Create,
		IssueToken:          e.issueToken,
		AfterSignup:         e.afterSignup,
	}
	if e.signupLimiter != nil {
		deps.CheckLimiter = e.signupLimiter.Enforce
	}
	return deps
}

func (e *Engine) afterSignup(ctx context.Context, a account.Account) {
	if e.welcome == nil {
		return
	}
	if err := e.welcome.EnqueueWelcome(context.WithoutCancel(ctx), a); err != nil {
		e.logger.WarnContext(ctx, "enqueue welcome mail", slog.String("account_id", a.ID), slog.Any("error", err))
	}
}
