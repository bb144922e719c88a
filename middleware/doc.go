// Package middleware exposes HTTP middleware that re-validates the
// application principal on every request.
//
// # Guards
//
//   - [RequireAccount] rejects requests without a principal whose security
//     stamp still matches the stored account.
//   - [Optional] runs the same check but lets anonymous requests through.
//
// Both bind a goAccount.Session to the request via a [SessionFactory], call
// the validator's ValidatePrincipal, and inject the session and the account
// into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into validator calls. It does NOT
// compare stamps itself; a rejected principal is signed out by the validator.
//
// # What this package must NOT do
//
//   - Decode cookies directly (delegates to the Session).
//   - Access the account repository.
package middleware
