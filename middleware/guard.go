package middleware

import (
	"context"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
)

// Validator is the part of *goAccount.Engine the guards need.
type Validator interface {
	goAccount.StampValidator
	ApplicationScheme() string
}

// SessionFactory binds a session transport to one request.
type SessionFactory func(w http.ResponseWriter, r *http.Request) goAccount.Session

type accountContextKey struct{}
type sessionContextKey struct{}

// AccountFromContext returns the account the guard validated for this request.
func AccountFromContext(ctx context.Context) (*goAccount.Account, bool) {
	a, ok := ctx.Value(accountContextKey{}).(*goAccount.Account)
	return a, ok && a != nil
}

// SessionFromContext returns the session transport the guard bound to this
// request. Handlers reuse it so cookies written by the engine stay visible.
func SessionFromContext(ctx context.Context) (goAccount.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(goAccount.Session)
	return s, ok && s != nil
}

// RequireAccount answers 401 unless the request carries a valid application
// principal. A principal with a stale stamp is signed out before the 401.
func RequireAccount(v Validator, sessions SessionFactory) func(http.Handler) http.Handler {
	return guard(v, sessions, true)
}

func guard(v Validator, sessions SessionFactory, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil || sessions == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			sess := sessions(w, r)
			ctx = context.WithValue(ctx, sessionContextKey{}, sess)

			p, err := sess.Authenticate(ctx, v.ApplicationScheme())
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			account, ok, err := v.ValidatePrincipal(ctx, sess, p)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if !ok {
				if required {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = context.WithValue(ctx, accountContextKey{}, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
