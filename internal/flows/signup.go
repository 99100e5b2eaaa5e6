package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/natours/account"
)

// SignupRequest is the self-service registration input. There is no role
// field; new accounts always get account.DefaultRole.
type SignupRequest struct {
	Name            string
	Email           string
	Photo           string
	Password        string
	PasswordConfirm string
}

// SignupDeps wires RunSignup.
type SignupDeps struct {
	Shared

	CheckLimiter        func(context.Context, string, string) error
	MapLimiterError     func(error) error
	CheckPasswordPolicy func(string) error
	HashPassword        func(string) (string, error)
	CreateAccount       func(context.Context, account.Account) (account.Account, error)
	IssueToken          func(string) (IssuedToken, error)
	// AfterSignup runs best-effort side work such as the welcome mail.
	AfterSignup func(context.Context, account.Account)
}

// RunSignup validates input, creates the account and logs it in.
func RunSignup(ctx context.Context, req SignupRequest, deps SignupDeps) (SessionResult, error) {
	deps.normalize()
	if deps.HashPassword == nil || deps.CreateAccount == nil || deps.IssueToken == nil {
		return SessionResult{}, deps.Errors.EngineNotReady
	}

	email := account.NormalizeEmail(req.Email)
	fail := func(err error, reason string) (SessionResult, error) {
		deps.EmitAudit(ctx, deps.Events.Signup, false, "", err, func() map[string]string {
			return map[string]string{"email": email, "reason": reason}
		})
		return SessionResult{}, err
	}

	if strings.TrimSpace(req.Name) == "" || email == "" || req.Password == "" || req.PasswordConfirm == "" {
		return fail(Fail(deps.Errors.BadRequest, "please provide name, email, password and passwordConfirm"), "missing_fields")
	}
	if !account.ValidEmail(email) {
		return fail(Fail(deps.Errors.BadRequest, "please provide a valid email"), "invalid_email")
	}
	if req.Password != req.PasswordConfirm {
		return fail(Fail(deps.Errors.BadRequest, "passwords are not the same"), "confirm_mismatch")
	}
	if deps.CheckPasswordPolicy != nil {
		if err := deps.CheckPasswordPolicy(req.Password); err != nil {
			return fail(Fail(deps.Errors.BadRequest, err.Error()), "password_policy")
		}
	}

	if deps.CheckLimiter != nil {
		if err := deps.CheckLimiter(ctx, email, deps.ClientIP(ctx)); err != nil {
			mapped := err
			if deps.MapLimiterError != nil {
				mapped = deps.MapLimiterError(err)
			}
			if errors.Is(mapped, deps.Errors.SignupRateLimited) {
				deps.MetricInc(deps.Metrics.SignupRateLimited)
			}
			return fail(mapped, "rate_limited")
		}
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return fail(err, "hash_failed")
	}

	acct, err := account.NewAccount(account.NewAccountInput{
		Name:         req.Name,
		Email:        email,
		Photo:        req.Photo,
		PasswordHash: hash,
	}, deps.Now())
	if err != nil {
		return fail(Fail(deps.Errors.BadRequest, err.Error()), "invalid_account")
	}

	created, err := deps.CreateAccount(ctx, acct)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			deps.MetricInc(deps.Metrics.SignupDuplicate)
			return fail(Fail(deps.Errors.AccountExists, "an account with this email already exists"), "duplicate")
		}
		return fail(err, "store_failed")
	}

	token, err := deps.IssueToken(created.ID)
	if err != nil {
		return fail(err, "issue_failed")
	}

	if deps.AfterSignup != nil {
		deps.AfterSignup(ctx, created.WithoutSecrets())
	}

	deps.MetricInc(deps.Metrics.SignupSuccess)
	deps.MetricInc(deps.Metrics.SessionIssued)
	deps.EmitAudit(ctx, deps.Events.Signup, true, created.ID, nil, accountMeta(created))
	return SessionResult{Account: created.WithoutSecrets(), Token: token}, nil
}
