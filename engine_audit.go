package natours

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/natours/internal/flows"
)

const (
	auditEventSignup               = "signup"
	auditEventLogin                = "login"
	auditEventLogout               = "logout"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetConfirm = "password_reset_confirm"
	auditEventPasswordChange       = "password_change"
	auditEventAuthenticate         = "authenticate"
	auditEventAccessDenied         = "access_denied"
	auditEventProfileUpdate        = "profile_update"
	auditEventAccountDeactivate    = "account_deactivate"
	auditEventAdminAccountUpdate   = "admin_account_update"
	auditEventAdminAccountDelete   = "admin_account_delete"
)

// AuditErrorCode is the stable code recorded in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrBadRequest         AuditErrorCode = "bad_request"
	auditErrAccountExists      AuditErrorCode = "account_exists"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrIncorrectPassword  AuditErrorCode = "incorrect_password"
	auditErrNotAuthenticated   AuditErrorCode = "not_authenticated"
	auditErrStaleSession       AuditErrorCode = "stale_session"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrInvalidResetToken  AuditErrorCode = "invalid_reset_token"
	auditErrDeliveryFailed     AuditErrorCode = "delivery_failed"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, accountID string, err error, metadata func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
	}
	if err != nil {
		event.Error = string(auditErrorCode(err))
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case errors.Is(err, ErrBadRequest):
		return auditErrBadRequest
	case errors.Is(err, ErrAccountExists):
		return auditErrAccountExists
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrIncorrectPassword):
		return auditErrIncorrectPassword
	case errors.Is(err, ErrStaleSession):
		return auditErrStaleSession
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return auditErrInvalidResetToken
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrPasswordResetRateLimited),
		errors.Is(err, ErrSignupRateLimited):
		return auditErrRateLimited
	default:
		return auditErrInternal
	}
}

func flowEvents() flows.Events {
	return flows.Events{
		Signup:               auditEventSignup,
		Login:                auditEventLogin,
		PasswordResetRequest: auditEventPasswordResetRequest,
		PasswordResetConfirm: auditEventPasswordResetConfirm,
		PasswordChange:       auditEventPasswordChange,
		Authenticate:         auditEventAuthenticate,
		ProfileUpdate:        auditEventProfileUpdate,
		AccountDeactivate:    auditEventAccountDeactivate,
	}
}

// AuditDropped returns how many audit events were dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}
