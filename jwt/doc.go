// Package jwt issues and verifies stateless session tokens.
//
// A token carries the account id, expiry, a random jti and the issue
// instant at millisecond precision. Nothing is stored server-side; a token
// is revoked only by expiry or by the account changing its password after
// the token's issue instant.
//
// Verification fails closed: an unexpected algorithm, bad signature,
// missing account id, expiry or an issue instant too far in the future all
// return an error wrapping [ErrInvalidToken] or [ErrExpiredToken].
package jwt
