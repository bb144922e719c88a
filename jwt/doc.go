// Package jwt signs and verifies the compact tokens goAccount hands to clients:
// purpose-scoped account tokens (email confirmation, password reset) and signed
// session principals carried in cookies.
//
// A [Manager] wraps one signing configuration (HS256 or Ed25519, optional key
// rotation through key ids) and applies strict parsing: pinned algorithm,
// issuer and audience checks, bounded leeway and an upper bound on future iat.
package jwt
