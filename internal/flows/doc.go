// Package flows contains pure-function orchestrators for every Engine
// operation.
//
// Each flow function (RunSignup, RunLogin, RunForgotPassword, ...) accepts a
// typed dependency struct of function fields and returns results without
// side-effects beyond those dependencies.
//
// # Architecture boundaries
//
// Flow functions coordinate the account store, the hasher, the token
// manager, the throttles, the notifier, audit and metrics. They own none of
// them; the root Engine does.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import natours (import cycle).
//   - Perform I/O directly.
package flows
