package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goAccount/internal/config"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/store/memory"
)

type outbox struct {
	mu     sync.Mutex
	bodies []string
}

func (o *outbox) SendEmail(_ context.Context, body, _, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bodies = append(o.bodies, body)
	return nil
}

func (o *outbox) last(t *testing.T, prefix string) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.bodies)
	body := o.bodies[len(o.bodies)-1]
	require.True(t, strings.HasPrefix(body, prefix), "unexpected body %q", body)
	return strings.TrimPrefix(body, prefix)
}

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	mail   *outbox
}

func newTestServer(t *testing.T, opts ...func(*config.Config, *deps)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Tokens.SigningKey = "0123456789abcdef0123456789abcdef"
	cfg.Cookies.Secure = false
	cfg.Metrics.Enabled = true

	hasher, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	chain, err := password.NewChain(hasher)
	require.NoError(t, err)

	mail := &outbox{}
	d := deps{repo: memory.New(chain), sender: mail}
	for _, opt := range opts {
		opt(cfg, &d)
	}
	a, err := newAppWith(cfg, slog.New(slog.DiscardHandler), d)
	require.NoError(t, err)

	srv := httptest.NewServer(a.routes())
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{t: t, srv: srv, client: &http.Client{Jar: jar}, mail: mail}
}

func (s *testServer) do(method, path string, body any) (int, map[string]any) {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, r)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(bytes.TrimSpace(data)) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]any{"email": "alice@example.com", "password": "Password1@"}

	code, body := s.do(http.MethodPost, "/account/signup", creds)
	require.Equal(t, http.StatusCreated, code, body)
	confirmToken := s.mail.last(t, "your link:")

	code, body = s.do(http.MethodGet, "/account/me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, false, body["emailConfirmed"])

	code, body = s.do(http.MethodPost, "/account/email/confirm", map[string]any{"token": "garbage"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_token", body["result"])

	code, _ = s.do(http.MethodPost, "/account/email/confirm", map[string]any{"token": confirmToken})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/account/two-factor", map[string]any{"enabled": true})
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodGet, "/account/me", nil)
	require.Equal(t, http.StatusOK, code, "toggling re-issues the caller's cookie")
	assert.Equal(t, true, body["twoFactorEnabled"])
	assert.Equal(t, true, body["emailConfirmed"])

	code, _ = s.do(http.MethodPost, "/account/logout", nil)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = s.do(http.MethodGet, "/account/me", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, body = s.do(http.MethodPost, "/account/login", creds)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "two_factor_required", body["result"])
	securityCode := s.mail.last(t, "Your security code is: ")

	code, _ = s.do(http.MethodGet, "/account/me", nil)
	require.Equal(t, http.StatusUnauthorized, code, "pending sign-in grants no access")

	code, body = s.do(http.MethodPost, "/account/login/two-factor", map[string]any{"code": securityCode})
	require.Equal(t, http.StatusOK, code, body)
	code, _ = s.do(http.MethodGet, "/account/me", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestPasswordResetRevokesSessions(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]any{"email": "bob@example.com", "password": "Password1@"}

	code, _ := s.do(http.MethodPost, "/account/signup", creds)
	require.Equal(t, http.StatusCreated, code)
	code, _ = s.do(http.MethodPost, "/account/email/confirm", map[string]any{"token": s.mail.last(t, "your link:")})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/account/password/forgot", map[string]any{"email": "nobody@example.com"})
	require.Equal(t, http.StatusAccepted, code, "unknown emails look the same")

	code, _ = s.do(http.MethodPost, "/account/password/forgot", map[string]any{"email": "bob@example.com"})
	require.Equal(t, http.StatusAccepted, code)
	resetToken := s.mail.last(t, "your password reset link:")

	code, _ = s.do(http.MethodPost, "/account/password/reset", map[string]any{
		"email": "bob@example.com", "token": resetToken, "password": "Password2@",
	})
	require.Equal(t, http.StatusNoContent, code)

	code, _ = s.do(http.MethodGet, "/account/me", nil)
	require.Equal(t, http.StatusUnauthorized, code, "old session carries a stale stamp")

	code, body := s.do(http.MethodPost, "/account/login", creds)
	require.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "failed", body["result"])

	code, _ = s.do(http.MethodPost, "/account/login", map[string]any{"email": "bob@example.com", "password": "Password2@"})
	require.Equal(t, http.StatusOK, code)
}

func TestSignUpDuplicateAndValidation(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(http.MethodPost, "/account/signup", map[string]any{"email": "not-an-email", "password": "Password1@"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid field: Email", body["error"])

	code, _ = s.do(http.MethodPost, "/account/signup", map[string]any{"email": "c@example.com", "password": "Password1@", "extra": 1})
	require.Equal(t, http.StatusBadRequest, code)

	creds := map[string]any{"email": "c@example.com", "password": "Password1@"}
	code, _ = s.do(http.MethodPost, "/account/signup", creds)
	require.Equal(t, http.StatusCreated, code)
	code, body = s.do(http.MethodPost, "/account/signup", creds)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "failed", body["result"])

	code, _ = s.do(http.MethodPost, "/account/two-factor", map[string]any{})
	require.Equal(t, http.StatusBadRequest, code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/account/login", map[string]any{"email": "ghost@example.com", "password": "Password1@"})

	resp, err := s.client.Get(s.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "goaccount_password_sign_in_failure_total 1")
}

func TestResendConfirmationRateLimited(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := newTestServer(t, func(cfg *config.Config, d *deps) {
		cfg.EmailLimits.Confirmation.Enabled = true
		cfg.EmailLimits.Confirmation.MaxRequests = 2
		d.redis = rdb
	})

	code, _ := s.do(http.MethodPost, "/account/signup", map[string]any{"email": "erin@example.com", "password": "Password1@"})
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(http.MethodPost, "/account/email/resend", nil)
	require.Equal(t, http.StatusAccepted, code)

	code, body := s.do(http.MethodPost, "/account/email/resend", nil)
	require.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "too many confirmation emails", body["error"])
}
