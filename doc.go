// Package natours is the account and access-control engine of the Natours
// tour-booking service: stateless session tokens, the password lifecycle and
// role-based access checks.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// natours is the public surface. It exposes [Engine], [Builder], [Config],
// the gate types ([Check], [Pipeline], [Access]) and value types such as
// [Session]. Flow orchestration and throttling live under internal/; the
// account record and its store contract live in the account package.
//
// # What this package must NOT do
//
//   - Depend on an HTTP framework. The gin adapters live in middleware/.
//   - Persist tokens. Revocation is expiry or a later password change.
//   - Import any sub-package that re-imports natours.
package natours
