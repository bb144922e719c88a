// Package password hashes and verifies account passwords for the bundled
// repositories.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Chain] also verifies bcrypt hashes ($2a$, $2b$, $2y$) and reports them as
// needing a rehash.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other goAccount package.
//   - Log plaintext passwords.
package password
