package flows

import (
	"context"

	"github.com/MrEthical07/natours/account"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow.
type Deps struct {
	Signup         SignupDeps
	Login          LoginDeps
	PasswordReset  PasswordResetDeps
	UpdatePassword UpdatePasswordDeps
	Authenticate   AuthenticateDeps
	Profile        ProfileDeps
}

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired.
func (s Service) Initialized() bool {
	return s.deps.Authenticate.ParseToken != nil
}

func (s Service) Signup(ctx context.Context, req SignupRequest) (SessionResult, error) {
	return RunSignup(ctx, req, s.deps.Signup)
}

func (s Service) Login(ctx context.Context, email, password string) (SessionResult, error) {
	return RunLogin(ctx, email, password, s.deps.Login)
}

func (s Service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	return RunForgotPassword(ctx, req, s.deps.PasswordReset)
}

func (s Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) (SessionResult, error) {
	return RunResetPassword(ctx, req, s.deps.PasswordReset)
}

func (s Service) UpdatePassword(ctx context.Context, req UpdatePasswordRequest) (SessionResult, error) {
	return RunUpdatePassword(ctx, req, s.deps.UpdatePassword)
}

func (s Service) VerifyToken(ctx context.Context, token string) (TokenClaims, error) {
	return RunVerifyToken(ctx, token, s.deps.Authenticate)
}

func (s Service) ResolveAccount(ctx context.Context, claims TokenClaims) (account.Account, error) {
	return RunResolveAccount(ctx, claims, s.deps.Authenticate)
}

func (s Service) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) (account.Account, error) {
	return RunUpdateProfile(ctx, req, s.deps.Profile)
}

func (s Service) Deactivate(ctx context.Context, accountID string) error {
	return RunDeactivate(ctx, accountID, s.deps.Profile)
}
