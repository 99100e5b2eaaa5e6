// Package limiters provides the signup and password-reset throttles built on
// the internal/rate fixed windows.
//
// # Limiters
//
//   - [SignupLimiter] per email and per IP for account creation.
//   - [PasswordResetLimiter] per email and per IP for reset requests, per IP
//     for reset confirmations.
//
// All limiters are nil-safe: calling any method on a nil receiver returns nil.
//
// # What this package must NOT do
//
//   - Import natours or any sibling internal package except internal/rate.
//   - Decide consequences; flow functions map the errors.
package limiters
