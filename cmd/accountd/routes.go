package main

import (
	"net"
	"net/http"

	"github.com/gorilla/mux"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
)

func (a *app) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestContext)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	acc := r.PathPrefix("/account").Subrouter()
	acc.HandleFunc("/signup", a.handleSignUp).Methods(http.MethodPost)
	acc.HandleFunc("/login", a.handleLogin).Methods(http.MethodPost)
	acc.HandleFunc("/login/two-factor", a.handleTwoFactorLogin).Methods(http.MethodPost)
	acc.HandleFunc("/logout", a.handleLogout).Methods(http.MethodPost)
	acc.HandleFunc("/password/forgot", a.handleForgotPassword).Methods(http.MethodPost)
	acc.HandleFunc("/password/reset", a.handleResetPassword).Methods(http.MethodPost)

	guard := middleware.RequireAccount(a.engine, a.sessionFor)
	acc.Handle("/me", guard(http.HandlerFunc(a.handleMe))).Methods(http.MethodGet)
	acc.Handle("/email/confirm", guard(http.HandlerFunc(a.handleConfirmEmail))).Methods(http.MethodPost)
	acc.Handle("/email/resend", guard(http.HandlerFunc(a.handleResendConfirmation))).Methods(http.MethodPost)
	acc.Handle("/two-factor", guard(http.HandlerFunc(a.handleToggleTwoFactor))).Methods(http.MethodPost)

	return r
}

// sessionFor reuses the session bound by the guard so that cookies written
// during the request stay visible to later reads.
func (a *app) sessionFor(w http.ResponseWriter, r *http.Request) goAccount.Session {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		return sess
	}
	return a.cookies.ForRequest(w, r)
}

// requestContext records the caller's address and user agent for audit events.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		ctx := goAccount.WithClientIP(r.Context(), ip)
		ctx = goAccount.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
