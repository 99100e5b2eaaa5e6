package natours

import (
	"context"
	"fmt"

	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/internal"
	"github.com/MrEthical07/natours/internal/flows"
	"github.com/MrEthical07/natours/password"
)

const resetMailSubject = "Your password reset token (valid for %d min)"

// ForgotPassword stores a reset token on the account and mails the link
// resetURLBase + "/" + token. Unknown emails fail with ErrNotFound.
func (e *Engine) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.ForgotPassword(ctx, flows.ForgotPasswordRequest{Email: email, ResetURLBase: resetURLBase})
}

// ResetPassword consumes a reset token, sets the new password and logs the
// account in. A token works once.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword, passwordConfirm string) (Session, error) {
	if !e.ready() {
		return Session{}, ErrEngineNotReady
	}
	res, err := e.flows.ResetPassword(ctx, flows.ResetPasswordRequest{
		Token:           token,
		Password:        newPassword,
		PasswordConfirm: passwordConfirm,
	})
	if err != nil {
		return Session{}, err
	}
	return toSession(res), nil
}

func (e *Engine) passwordResetFlowDeps() flows.PasswordResetDeps {
	deps := flows.PasswordResetDeps{
		Shared:               e.sharedFlowDeps(),
		ResetTTL:             e.config.PasswordReset.ResetTTL,
		DeliveryTimeout:      e.config.PasswordReset.DeliveryTimeout,
		MapLimiterError:      mapThrottleError(ErrPasswordResetRateLimited),
		FindByEmail:          e.findByEmail,
		FindByResetTokenHash: e.store.FindByResetTokenHash,
		UpdateAccount:        e.store.Update,
		NewResetToken:        internal.NewResetToken,
		HashResetToken:       internal.HashResetToken,
		ValidTokenFormat:     internal.ValidResetTokenFormat,
		Deliver:              e.deliverResetLink,
		CheckPasswordPolicy:  password.CheckPolicy,
		HashPassword:         e.hasher.Hash,
		IssueToken:           e.issueToken,
		OnInternalFail:       e.logInternal,
	}
	if e.resetLimiter != nil {
		deps.CheckRequestLimiter = e.resetLimiter.CheckRequest
		deps.CheckConfirmLimiter = e.resetLimiter.CheckConfirm
	}
	return deps
}

func (e *Engine) findByEmail(ctx context.Context, email string) (account.Account, error) {
	return e.store.FindByEmail(ctx, email, false)
}

func (e *Engine) deliverResetLink(ctx context.Context, a account.Account, link string) error {
	minutes := int(e.config.PasswordReset.ResetTTL.Minutes())
	return e.notifier.Send(ctx, Message{
		To:      a.Email,
		Subject: fmt.Sprintf(resetMailSubject, minutes),
		Text: fmt.Sprintf(
			"Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s\n"+
				"If you didn't forget your password, please ignore this email.\n",
			link,
		),
	})
}
