// Package rate provides Redis fixed-window counters and the login throttle
// built on them.
//
// # Window semantics
//
// INCR plus EXPIRE on the first hit. Login keys:
//   - nl:  per email
//   - nli: per client IP
//
// # What this package must NOT do
//
//   - Decide what a denial means to the caller; flows map ErrRateLimited.
package rate
