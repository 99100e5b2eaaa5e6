package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/natours/account"
)

// LoginDeps wires RunLogin.
type LoginDeps struct {
	Shared

	CheckLimiter    func(context.Context, string, string) error
	RecordFailure   func(context.Context, string, string) error
	ResetLimiter    func(context.Context, string) error
	MapLimiterError func(error) error

	// FindByEmail must return the password hash.
	FindByEmail    func(context.Context, string) (account.Account, error)
	VerifyPassword func(string, string) (bool, error)
	// DummyVerify burns the same hasher work when the email is unknown.
	DummyVerify    func(string)
	NeedsUpgrade   func(string) bool
	HashPassword   func(string) (string, error)
	UpdateAccount  func(context.Context, string, account.Update, account.UpdateOptions) (account.Account, error)
	IssueToken     func(string) (IssuedToken, error)
	OnInternalFail func(context.Context, string, error)
}

// RunLogin authenticates email and password and issues a session token.
// Unknown emails and wrong passwords yield the same InvalidCredentials.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (SessionResult, error) {
	deps.normalize()
	if deps.FindByEmail == nil || deps.VerifyPassword == nil || deps.IssueToken == nil {
		return SessionResult{}, deps.Errors.EngineNotReady
	}

	email = account.NormalizeEmail(email)
	if email == "" || password == "" {
		err := Fail(deps.Errors.BadRequest, "please provide email and password")
		deps.EmitAudit(ctx, deps.Events.Login, false, "", err, reasonMeta("missing_fields"))
		return SessionResult{}, err
	}

	ip := deps.ClientIP(ctx)
	if deps.CheckLimiter != nil {
		if err := deps.CheckLimiter(ctx, email, ip); err != nil {
			mapped := err
			if deps.MapLimiterError != nil {
				mapped = deps.MapLimiterError(err)
			}
			if errors.Is(mapped, deps.Errors.LoginRateLimited) {
				deps.MetricInc(deps.Metrics.LoginRateLimited)
			}
			deps.EmitAudit(ctx, deps.Events.Login, false, "", mapped, emailMeta(email))
			return SessionResult{}, mapped
		}
	}

	invalid := func(accountID string) (SessionResult, error) {
		if deps.RecordFailure != nil {
			if err := deps.RecordFailure(ctx, email, ip); err != nil && deps.OnInternalFail != nil {
				deps.OnInternalFail(ctx, "record login failure", err)
			}
		}
		err := Fail(deps.Errors.InvalidCredentials, "incorrect email or password")
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.Login, false, accountID, err, emailMeta(email))
		return SessionResult{}, err
	}

	acct, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			if deps.DummyVerify != nil {
				deps.DummyVerify(password)
			}
			return invalid("")
		}
		return SessionResult{}, err
	}

	ok, err := deps.VerifyPassword(password, acct.PasswordHash)
	if err != nil {
		if deps.OnInternalFail != nil {
			deps.OnInternalFail(ctx, "verify stored hash", err)
		}
		return invalid(acct.ID)
	}
	if !ok {
		return invalid(acct.ID)
	}

	if deps.ResetLimiter != nil {
		if err := deps.ResetLimiter(ctx, email); err != nil && deps.OnInternalFail != nil {
			deps.OnInternalFail(ctx, "reset login throttle", err)
		}
	}

	upgradeHash(ctx, acct, password, deps)

	token, err := deps.IssueToken(acct.ID)
	if err != nil {
		return SessionResult{}, err
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.MetricInc(deps.Metrics.SessionIssued)
	deps.EmitAudit(ctx, deps.Events.Login, true, acct.ID, nil, accountMeta(acct))
	return SessionResult{Account: acct.WithoutSecrets(), Token: token}, nil
}

// upgradeHash re-hashes with current parameters. The change timestamp is
// not touched, so existing sessions stay valid.
func upgradeHash(ctx context.Context, acct account.Account, password string, deps LoginDeps) {
	if deps.NeedsUpgrade == nil || deps.HashPassword == nil || deps.UpdateAccount == nil {
		return
	}
	if !deps.NeedsUpgrade(acct.PasswordHash) {
		return
	}
	hash, err := deps.HashPassword(password)
	if err == nil {
		_, err = deps.UpdateAccount(ctx, acct.ID, account.Update{PasswordHash: &hash}, account.Unvalidated)
	}
	if err != nil && deps.OnInternalFail != nil {
		deps.OnInternalFail(ctx, "upgrade password hash", err)
	}
}
