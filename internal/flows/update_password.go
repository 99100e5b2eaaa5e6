package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/natours/account"
)

// UpdatePasswordRequest changes the password of an authenticated account.
type UpdatePasswordRequest struct {
	AccountID       string
	Current         string
	Password        string
	PasswordConfirm string
}

// UpdatePasswordDeps wires RunUpdatePassword.
type UpdatePasswordDeps struct {
	Shared

	// FindByID must return the password hash.
	FindByID            func(context.Context, string) (account.Account, error)
	VerifyPassword      func(string, string) (bool, error)
	CheckPasswordPolicy func(string) error
	HashPassword        func(string) (string, error)
	UpdateAccount       func(context.Context, string, account.Update, account.UpdateOptions) (account.Account, error)
	IssueToken          func(string) (IssuedToken, error)
}

// RunUpdatePassword verifies the current password, stores the new one and
// returns a fresh token. Every token issued before the change goes stale.
func RunUpdatePassword(ctx context.Context, req UpdatePasswordRequest, deps UpdatePasswordDeps) (SessionResult, error) {
	deps.normalize()
	if deps.FindByID == nil || deps.VerifyPassword == nil || deps.HashPassword == nil ||
		deps.UpdateAccount == nil || deps.IssueToken == nil {
		return SessionResult{}, deps.Errors.EngineNotReady
	}

	fail := func(err error, reason string) (SessionResult, error) {
		deps.EmitAudit(ctx, deps.Events.PasswordChange, false, req.AccountID, err, reasonMeta(reason))
		return SessionResult{}, err
	}

	if req.Current == "" || req.Password == "" || req.PasswordConfirm == "" {
		return fail(Fail(deps.Errors.BadRequest, "please provide passwordCurrent, password and passwordConfirm"), "missing_fields")
	}

	acct, err := deps.FindByID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fail(Fail(deps.Errors.NotAuthenticated, "the user belonging to this token no longer exists"), "account_missing")
		}
		return SessionResult{}, err
	}

	ok, err := deps.VerifyPassword(req.Current, acct.PasswordHash)
	if err != nil {
		return SessionResult{}, err
	}
	if !ok {
		deps.MetricInc(deps.Metrics.PasswordChangeInvalidOld)
		return fail(Fail(deps.Errors.IncorrectPassword, "your current password is wrong"), "invalid_current")
	}

	if req.Password != req.PasswordConfirm {
		return fail(Fail(deps.Errors.BadRequest, "passwords are not the same"), "confirm_mismatch")
	}
	if req.Password == req.Current {
		return fail(Fail(deps.Errors.BadRequest, "new password must differ from the current one"), "reuse")
	}
	if deps.CheckPasswordPolicy != nil {
		if err := deps.CheckPasswordPolicy(req.Password); err != nil {
			return fail(Fail(deps.Errors.BadRequest, err.Error()), "password_policy")
		}
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return SessionResult{}, err
	}

	updated, err := deps.UpdateAccount(ctx, acct.ID, account.SetPassword(hash, deps.Now()), account.Validated)
	if err != nil {
		return SessionResult{}, err
	}

	issued, err := deps.IssueToken(updated.ID)
	if err != nil {
		return SessionResult{}, err
	}

	deps.MetricInc(deps.Metrics.PasswordChangeSuccess)
	deps.MetricInc(deps.Metrics.SessionIssued)
	deps.EmitAudit(ctx, deps.Events.PasswordChange, true, updated.ID, nil, nil)
	return SessionResult{Account: updated.WithoutSecrets(), Token: issued}, nil
}
