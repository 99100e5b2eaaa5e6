// Package account holds the account record shared by the engine, the flows
// and the credential stores.
//
// It defines the role vocabulary, the partial-update shape used by every
// mutation, and the [Store] contract that persistence backends implement.
//
// # What this package must NOT do
//
//   - Hash passwords or mint tokens.
//   - Depend on any transport or storage library.
package account
