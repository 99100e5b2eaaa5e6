package natours

import (
	"context"
	"time"

	"github.com/MrEthical07/natours/account"
)

// Session is a freshly issued session token together with the account it
// belongs to. Account never carries secrets.
type Session struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Account   account.Account
}

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Notifier delivers email. Send must honour ctx cancellation.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// WelcomeSender schedules the welcome mail after signup. Failures are
// logged and never fail the signup.
type WelcomeSender interface {
	EnqueueWelcome(ctx context.Context, a account.Account) error
}

// SignupRequest is the self-service registration payload. Role is not part
// of it; new accounts always get the default role.
type SignupRequest struct {
	Name            string
	Email           string
	Photo           string
	Password        string
	PasswordConfirm string
}

// ProfileUpdate carries self-service profile changes. Nil fields are left
// as they are.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Photo *string
	// HasPasswordFields is set when the request body tried to change the
	// password through the profile route.
	HasPasswordFields bool
}

// AdminUpdate carries administrator changes. Passwords are never changed
// here.
type AdminUpdate struct {
	Name   *string
	Email  *string
	Photo  *string
	Role   *account.Role
	Active *bool
}

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	AccountID string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
