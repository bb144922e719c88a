package middleware

import "net/http"

// Optional validates the principal like [RequireAccount] but serves
// anonymous and rejected requests too. Handlers check [AccountFromContext].
func Optional(v Validator, sessions SessionFactory) func(http.Handler) http.Handler {
	return guard(v, sessions, false)
}
