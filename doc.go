// Package goAccount provides account security for cookie-based web
// applications: password sign-in with an optional emailed second factor,
// sign-up with email confirmation, password update and reset, and security
// stamp validation that revokes every outstanding session and token when an
// account's credentials change.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build]. Every operation takes the caller's [Session] explicitly;
// the engine never reads ambient request state.
//
// # Architecture boundaries
//
// goAccount is the public surface. It exposes [Engine], [Builder], [Config],
// the repository and transport interfaces, and outcome enums. Token issuance
// lives in token/, principal construction in principal/, cookie transport in
// session/ and storage adapters in store/.
//
// # What this package must NOT do
//
//   - Hash or compare passwords itself; the [AccountRepository] owns that.
//   - Keep a server-side session table. Revocation relies on the security stamp.
//   - Import any sub-package that re-imports goAccount.
package goAccount
