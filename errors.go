package natours

import (
	"errors"

	"github.com/MrEthical07/natours/internal/flows"
)

var (
	// ErrBadRequest covers missing or malformed input.
	ErrBadRequest = errors.New("bad request")
	// ErrAccountExists is returned when the email is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials is the single login failure for unknown email
	// and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIncorrectPassword is returned when the current password does not
	// match during a password update.
	ErrIncorrectPassword = errors.New("incorrect current password")
	// ErrNotAuthenticated is returned when no valid session accompanies a
	// protected request.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStaleSession is returned for tokens issued before the account's
	// latest password change.
	ErrStaleSession = errors.New("session predates password change")
	// ErrForbidden is returned when the account's role is not permitted.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the addressed account does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidOrExpiredToken is returned for unknown, consumed or expired
	// reset tokens.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	// ErrDeliveryFailed is returned when the reset email could not be sent.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrLoginRateLimited is returned when the login throttle trips.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrPasswordResetRateLimited is returned when the reset throttle trips.
	ErrPasswordResetRateLimited = errors.New("password reset rate limited")
	// ErrSignupRateLimited is returned when the signup throttle trips.
	ErrSignupRateLimited = errors.New("signup rate limited")
	// ErrEngineNotReady is returned when an Engine was not built by Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrThrottleUnavailable wraps Redis failures in the throttles.
	ErrThrottleUnavailable = errors.New("throttle backend unavailable")
)

// operational lists the errors that are expected, user-facing outcomes.
var operational = []error{
	ErrBadRequest,
	ErrAccountExists,
	ErrInvalidCredentials,
	ErrIncorrectPassword,
	ErrNotAuthenticated,
	ErrStaleSession,
	ErrForbidden,
	ErrNotFound,
	ErrInvalidOrExpiredToken,
	ErrDeliveryFailed,
	ErrLoginRateLimited,
	ErrPasswordResetRateLimited,
	ErrSignupRateLimited,
}

// IsOperational reports whether err is an expected outcome whose message
// may be shown to the caller. Everything else is an infrastructure or
// programming error.
func IsOperational(err error) bool {
	for _, kind := range operational {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// ErrorMessage returns the caller-facing text for an operational error.
func ErrorMessage(err error) string {
	var detail *flows.DetailError
	if errors.As(err, &detail) {
		return detail.Detail
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func flowErrors() flows.Errors {
	return flows.Errors{
		EngineNotReady:           ErrEngineNotReady,
		BadRequest:               ErrBadRequest,
		AccountExists:            ErrAccountExists,
		InvalidCredentials:       ErrInvalidCredentials,
		IncorrectPassword:        ErrIncorrectPassword,
		NotAuthenticated:         ErrNotAuthenticated,
		StaleSession:             ErrStaleSession,
		Forbidden:                ErrForbidden,
		NotFound:                 ErrNotFound,
		InvalidOrExpiredToken:    ErrInvalidOrExpiredToken,
		DeliveryFailed:           ErrDeliveryFailed,
		LoginRateLimited:         ErrLoginRateLimited,
		PasswordResetRateLimited: ErrPasswordResetRateLimited,
		SignupRateLimited:        ErrSignupRateLimited,
	}
}
