package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/natours/account"
)

// ForgotPasswordRequest starts a reset. ResetURLBase is the link prefix the
// plaintext token is appended to.
type ForgotPasswordRequest struct {
	Email        string
	ResetURLBase string
}

// ResetPasswordRequest completes a reset with the emailed token.
type ResetPasswordRequest struct {
	Token           string
	Password        string
	PasswordConfirm string
}

// PasswordResetDeps wires both halves of the reset lifecycle.
type PasswordResetDeps struct {
	Shared

	ResetTTL        time.Duration
	DeliveryTimeout time.Duration

	CheckRequestLimiter func(context.Context, string, string) error
	CheckConfirmLimiter func(context.Context, string) error
	MapLimiterError     func(error) error

	FindByEmail          func(context.Context, string) (account.Account, error)
	FindByResetTokenHash func(context.Context, string, time.Time) (account.Account, error)
	UpdateAccount        func(context.Context, string, account.Update, account.UpdateOptions) (account.Account, error)

	NewResetToken       func() (string, string, error)
	HashResetToken      func(string) string
	ValidTokenFormat    func(string) bool
	Deliver             func(context.Context, account.Account, string) error
	CheckPasswordPolicy func(string) error
	HashPassword        func(string) (string, error)
	IssueToken          func(string) (IssuedToken, error)
	OnInternalFail      func(context.Context, string, error)
}

// RunForgotPassword stores a hashed reset token on the account and delivers
// the plaintext link. A failed delivery rolls the pending token back.
func RunForgotPassword(ctx context.Context, req ForgotPasswordRequest, deps PasswordResetDeps) error {
	deps.normalize()
	if deps.FindByEmail == nil || deps.UpdateAccount == nil || deps.NewResetToken == nil || deps.Deliver == nil {
		return deps.Errors.EngineNotReady
	}

	email := account.NormalizeEmail(req.Email)
	if email == "" {
		err := Fail(deps.Errors.BadRequest, "please provide your email address")
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, "", err, reasonMeta("missing_email"))
		return err
	}

	if deps.CheckRequestLimiter != nil {
		if err := deps.CheckRequestLimiter(ctx, email, deps.ClientIP(ctx)); err != nil {
			mapped := mapLimiter(err, deps.MapLimiterError)
			if errors.Is(mapped, deps.Errors.PasswordResetRateLimited) {
				deps.MetricInc(deps.Metrics.PasswordResetRateLimited)
			}
			deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, "", mapped, emailMeta(email))
			return mapped
		}
	}

	acct, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			nf := Fail(deps.Errors.NotFound, "there is no user with that email address")
			deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, "", nf, emailMeta(email))
			return nf
		}
		return err
	}

	plain, hash, err := deps.NewResetToken()
	if err != nil {
		return err
	}
	pending := account.Update{Reset: &account.ResetToken{Hash: hash, ExpiresAt: deps.Now().Add(deps.ResetTTL)}}
	if _, err := deps.UpdateAccount(ctx, acct.ID, pending, account.Unvalidated); err != nil {
		return err
	}
	deps.MetricInc(deps.Metrics.PasswordResetRequest)

	link := strings.TrimRight(req.ResetURLBase, "/") + "/" + plain
	deliverCtx := ctx
	if deps.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		deliverCtx, cancel = context.WithTimeout(ctx, deps.DeliveryTimeout)
		defer cancel()
	}

	if err := deps.Deliver(deliverCtx, acct.WithoutSecrets(), link); err != nil {
		// Roll back even if the request context is already gone.
		cleanupCtx := context.WithoutCancel(ctx)
		// Only this request's token is cleared; a newer pending token stays.
		rollback := account.Update{ClearReset: true, IfResetHash: hash}
		_, clearErr := deps.UpdateAccount(cleanupCtx, acct.ID, rollback, account.Unvalidated)
		if clearErr != nil && !errors.Is(clearErr, account.ErrNotFound) && deps.OnInternalFail != nil {
			deps.OnInternalFail(ctx, "clear undeliverable reset token", clearErr)
		}
		if deps.OnInternalFail != nil {
			deps.OnInternalFail(ctx, "deliver reset email", err)
		}
		failed := Fail(deps.Errors.DeliveryFailed, "there was an error sending the email, try again later")
		deps.MetricInc(deps.Metrics.PasswordResetDeliveryFailed)
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, acct.ID, failed, reasonMeta("delivery_failed"))
		return failed
	}

	deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, acct.ID, nil, accountMeta(acct))
	return nil
}

// RunResetPassword consumes a reset token, sets the new password and logs
// the account in.
func RunResetPassword(ctx context.Context, req ResetPasswordRequest, deps PasswordResetDeps) (SessionResult, error) {
	deps.normalize()
	if deps.FindByResetTokenHash == nil || deps.UpdateAccount == nil || deps.HashResetToken == nil ||
		deps.HashPassword == nil || deps.IssueToken == nil {
		return SessionResult{}, deps.Errors.EngineNotReady
	}

	fail := func(accountID string, err error, reason string) (SessionResult, error) {
		deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, accountID, err, reasonMeta(reason))
		return SessionResult{}, err
	}
	invalid := Fail(deps.Errors.InvalidOrExpiredToken, "token is invalid or has expired")

	if deps.CheckConfirmLimiter != nil {
		if err := deps.CheckConfirmLimiter(ctx, deps.ClientIP(ctx)); err != nil {
			mapped := mapLimiter(err, deps.MapLimiterError)
			if errors.Is(mapped, deps.Errors.PasswordResetRateLimited) {
				deps.MetricInc(deps.Metrics.PasswordResetRateLimited)
			}
			return fail("", mapped, "rate_limited")
		}
	}

	token := strings.TrimSpace(req.Token)
	if token == "" || (deps.ValidTokenFormat != nil && !deps.ValidTokenFormat(token)) {
		return fail("", invalid, "malformed_token")
	}

	hash := deps.HashResetToken(token)
	now := deps.Now()
	acct, err := deps.FindByResetTokenHash(ctx, hash, now)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fail("", invalid, "unknown_or_expired")
		}
		return SessionResult{}, err
	}

	if req.Password == "" || req.PasswordConfirm == "" {
		return fail(acct.ID, Fail(deps.Errors.BadRequest, "please provide password and passwordConfirm"), "missing_fields")
	}
	if req.Password != req.PasswordConfirm {
		return fail(acct.ID, Fail(deps.Errors.BadRequest, "passwords are not the same"), "confirm_mismatch")
	}
	if deps.CheckPasswordPolicy != nil {
		if err := deps.CheckPasswordPolicy(req.Password); err != nil {
			return fail(acct.ID, Fail(deps.Errors.BadRequest, err.Error()), "password_policy")
		}
	}

	newHash, err := deps.HashPassword(req.Password)
	if err != nil {
		return SessionResult{}, err
	}

	updated, err := deps.UpdateAccount(ctx, acct.ID, account.ConsumeReset(hash, newHash, deps.Now()), account.Validated)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			// Another request consumed the token first.
			return fail(acct.ID, invalid, "consumed_concurrently")
		}
		return SessionResult{}, err
	}

	issued, err := deps.IssueToken(updated.ID)
	if err != nil {
		return SessionResult{}, err
	}

	deps.MetricInc(deps.Metrics.PasswordResetConfirmSuccess)
	deps.MetricInc(deps.Metrics.SessionIssued)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, true, updated.ID, nil, accountMeta(updated))
	return SessionResult{Account: updated.WithoutSecrets(), Token: issued}, nil
}

func mapLimiter(err error, mapFn func(error) error) error {
	if mapFn == nil {
		return err
	}
	return mapFn(err)
}
