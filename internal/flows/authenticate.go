package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/natours/account"
)

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	AccountID string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthenticateDeps wires token verification and account resolution.
type AuthenticateDeps struct {
	Shared

	ParseToken func(string) (TokenClaims, error)
	IsExpired  func(error) bool
	FindByID   func(context.Context, string) (account.Account, error)
}

// RunVerifyToken checks the token signature and lifetime.
func RunVerifyToken(ctx context.Context, token string, deps AuthenticateDeps) (TokenClaims, error) {
	deps.normalize()
	if deps.ParseToken == nil {
		return TokenClaims{}, deps.Errors.EngineNotReady
	}

	token = strings.TrimSpace(token)
	if token == "" {
		deps.MetricInc(deps.Metrics.AuthFailure)
		return TokenClaims{}, Fail(deps.Errors.NotAuthenticated, "you are not logged in, please log in to get access")
	}

	claims, err := deps.ParseToken(token)
	if err != nil {
		deps.MetricInc(deps.Metrics.AuthFailure)
		detail := "invalid token, please log in again"
		reason := "invalid_token"
		if deps.IsExpired != nil && deps.IsExpired(err) {
			detail = "your token has expired, please log in again"
			reason = "expired_token"
		}
		failed := Fail(deps.Errors.NotAuthenticated, detail)
		deps.EmitAudit(ctx, deps.Events.Authenticate, false, "", failed, reasonMeta(reason))
		return TokenClaims{}, failed
	}
	return claims, nil
}

// RunResolveAccount loads the token's account and rejects tokens minted
// before the latest password change.
func RunResolveAccount(ctx context.Context, claims TokenClaims, deps AuthenticateDeps) (account.Account, error) {
	deps.normalize()
	if deps.FindByID == nil {
		return account.Account{}, deps.Errors.EngineNotReady
	}

	acct, err := deps.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			deps.MetricInc(deps.Metrics.AuthFailure)
			failed := Fail(deps.Errors.NotAuthenticated, "the user belonging to this token no longer exists")
			deps.EmitAudit(ctx, deps.Events.Authenticate, false, claims.AccountID, failed, reasonMeta("account_missing"))
			return account.Account{}, failed
		}
		return account.Account{}, err
	}

	if acct.ChangedPasswordAfter(claims.IssuedAt) {
		deps.MetricInc(deps.Metrics.AuthStale)
		failed := Fail(deps.Errors.StaleSession, "user recently changed password, please log in again")
		deps.EmitAudit(ctx, deps.Events.Authenticate, false, acct.ID, failed, reasonMeta("stale_token"))
		return account.Account{}, failed
	}

	deps.MetricInc(deps.Metrics.AuthSuccess)
	return acct.WithoutSecrets(), nil
}
