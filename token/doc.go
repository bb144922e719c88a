// Package token generates and validates purpose-scoped account tokens.
//
// Tokens are never stored. Each one is bound to (purpose, account id, security
// stamp), so rotating the stamp invalidates every outstanding token at once.
//
// Two providers exist:
//
//   - [ProtectorProvider] signs an expiring token carrying a digest of the stamp.
//   - [TOTPProvider] derives an RFC 6238 key from the stamp and issues short numeric codes.
//
// A [Registry] maps each purpose to one provider. It is resolved once at startup
// from a closed set of provider names.
package token
