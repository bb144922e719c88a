// Package session transports principals between requests.
//
// [Codec] signs a principal into an expiring token. [Cookies] stores those
// tokens in HttpOnly cookies, one per scheme, and [Memory] keeps principals in
// process for callers without an HTTP round trip.
//
// Both transports satisfy the engine's session contract: SignIn, SignOut and
// Authenticate per scheme. A missing, expired or tampered cookie authenticates
// as nil rather than failing.
package session
