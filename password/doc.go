// Package password hashes and verifies account passwords.
//
// # Output format
//
// New hashes are Argon2id PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt hashes ($2a$, $2b$, $2y$) carried over from imported account data
// verify but are never produced. [Hasher.NeedsUpgrade] reports them, and any
// Argon2id hash made with weaker parameters, so callers can re-hash after a
// successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other natours package.
//   - Log plaintext passwords.
package password
