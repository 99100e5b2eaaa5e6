package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/natours/account"
)

// Metrics carries the metric IDs flows increment.
type Metrics struct {
	SignupSuccess               int
	SignupDuplicate             int
	SignupRateLimited           int
	LoginSuccess                int
	LoginFailure                int
	LoginRateLimited            int
	SessionIssued               int
	PasswordChangeSuccess       int
	PasswordChangeInvalidOld    int
	PasswordResetRequest        int
	PasswordResetDeliveryFailed int
	PasswordResetConfirmSuccess int
	PasswordResetConfirmFailure int
	PasswordResetRateLimited    int
	AuthSuccess                 int
	AuthFailure                 int
	AuthStale                   int
	AccessDenied                int
	ProfileUpdated              int
	AccountDeactivated          int
}

// Events carries the audit event names flows emit.
type Events struct {
	Signup               string
	Login                string
	PasswordResetRequest string
	PasswordResetConfirm string
	PasswordChange       string
	Authenticate         string
	ProfileUpdate        string
	AccountDeactivate    string
}

// Errors carries host-level sentinel errors.
type Errors struct {
	EngineNotReady           error
	BadRequest               error
	AccountExists            error
	InvalidCredentials       error
	IncorrectPassword        error
	NotAuthenticated         error
	StaleSession             error
	Forbidden                error
	NotFound                 error
	InvalidOrExpiredToken    error
	DeliveryFailed           error
	LoginRateLimited         error
	PasswordResetRateLimited error
	SignupRateLimited        error
}

// Shared is embedded by every flow dependency set.
type Shared struct {
	Now       func() time.Time
	ClientIP  func(context.Context) string
	MetricInc func(int)
	// EmitAudit(ctx, event, success, accountID, err, metadata)
	EmitAudit func(context.Context, string, bool, string, error, func() map[string]string)

	Metrics Metrics
	Events  Events
	Errors  Errors
}

func (s *Shared) normalize() {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.ClientIP == nil {
		s.ClientIP = func(context.Context) string { return "" }
	}
	if s.MetricInc == nil {
		s.MetricInc = func(int) {}
	}
	if s.EmitAudit == nil {
		s.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if s.Errors.EngineNotReady == nil {
		s.Errors.EngineNotReady = errors.New("engine not ready")
	}
}

// IssuedToken is a signed session token with its lifetime.
type IssuedToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionResult is returned by every flow that logs the caller in.
type SessionResult struct {
	Account account.Account
	Token   IssuedToken
}

// DetailError pairs a sentinel kind with a caller-facing message.
type DetailError struct {
	Kind   error
	Detail string
}

func (e *DetailError) Error() string { return e.Detail }

func (e *DetailError) Unwrap() error { return e.Kind }

// Fail builds a DetailError.
func Fail(kind error, detail string) error {
	return &DetailError{Kind: kind, Detail: detail}
}

func accountMeta(a account.Account) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"email": a.Email}
	}
}

func emailMeta(email string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"email": email}
	}
}

func reasonMeta(reason string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": reason}
	}
}
