// Package limiters provides the Redis-backed limiters for second-factor
// sign-in and outbound account emails.
//
// [TwoFactor] counts failed codes under "2fa:<account id>" with a window that
// starts at the first failure. [Requests] caps password reset and
// confirmation emails per recipient, and optionally per client address, in a
// fixed window. All methods are nil-safe: a nil limiter allows everything.
//
// The limiters only count. The engine decides what a tripped limit means.
package limiters
