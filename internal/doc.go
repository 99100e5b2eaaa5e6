// Package internal holds helpers private to natours, currently reset-token
// generation and hashing.
//
// # Sub-packages
//
//   - flows: pure-function orchestrators behind every Engine operation
//   - limiters: signup and password-reset throttles
//   - rate: Redis fixed-window counters and the login throttle
//   - appconfig: process configuration from env files and variables
//   - httpapi: gin routes, handlers and the JSON envelope
//
// # What this package must NOT do
//
//   - Export types that appear in the public natours API.
package internal
