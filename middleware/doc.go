// Package middleware adapts the natours access-control gate to gin.
//
// # Handlers
//
//   - [Protect] requires a valid, fresh session and stores the account on
//     the gin context.
//   - [RestrictTo] protects and then admits only the given roles.
//   - [IsLoggedIn] is the soft gate; it never aborts.
//   - [RequestContext] copies client IP and User-Agent into the request
//     context for throttling and audit.
//
// Tokens come from the Authorization header first and the jwt cookie
// second. Decisions are made by the Engine; this package only moves tokens
// between HTTP and the gate and renders failures with the shared JSON
// envelope.
package middleware
