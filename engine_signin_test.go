package goAccount

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goAccount/session"
	"github.com/MrEthical07/goAccount/token"
)

func TestPasswordSignInWithTwoFactorWritesOnlyPendingScheme(t *testing.T) {
	env := newTestEnv(t, testConfig())
	account := env.repo.add("bob@example.com", "Password1@", true, true)
	sess := session.NewMemory()
	ctx := context.Background()

	res, err := env.engine.PasswordSignIn(ctx, sess, "bob@example.com", "Password1@", SignInProperties{IsPersistent: true})
	if err != nil {
		t.Fatalf("PasswordSignIn failed: %v", err)
	}
	if res != PasswordSignInTwoFactorRequired {
		t.Fatalf("expected TwoFactorRequired, got %s", res)
	}
	if hasPrincipal(t, sess, "Application") {
		t.Fatal("application scheme must stay empty until the second factor")
	}

	pending, _ := sess.Authenticate(ctx, "TwoFactor")
	if pending == nil {
		t.Fatal("expected pending principal")
	}
	if id, ok := pending.AccountID("AccountId"); !ok || id != account.ID {
		t.Fatalf("pending principal id = %d, %v", id, ok)
	}
	if _, ok := pending.FindFirst("SecurityStamp"); ok {
		t.Fatal("pending principal must not carry the security stamp")
	}

	msg := env.sender.last(t)
	if msg.Subject != "security code" || msg.Recipient != "bob@example.com" {
		t.Fatalf("unexpected email: %+v", msg)
	}
	code := tokenFromBody(t, msg.Body, "Your security code is: ")
	if !env.engine.tokens.Validate(ctx, token.PurposeTwoFactor, code, account.subject()) {
		t.Fatal("emailed code must validate for the TwoFactor purpose")
	}
}

func TestPasswordSignInWithoutTwoFactorCarriesCurrentStamp(t *testing.T) {
	env := newTestEnv(t, testConfig())
	account := env.repo.add("carol@example.com", "Password1@", false, true)
	sess := session.NewMemory()
	ctx := context.Background()

	res, err := env.engine.PasswordSignIn(ctx, sess, "carol@example.com", "Password1@", SignInProperties{IsPersistent: true})
	if err != nil || res != PasswordSignInSucceeded {
		t.Fatalf("expected Succeeded, got %s (%v)", res, err)
	}

	p, _ := sess.Authenticate(ctx, "Application")
	if p == nil {
		t.Fatal("expected application principal")
	}
	stamp, ok := p.FindFirst("SecurityStamp")
	if !ok || stamp.Value != account.SecurityStamp {
		t.Fatalf("stamp claim %q, want %q", stamp.Value, account.SecurityStamp)
	}
	email, ok := p.FindFirst("Email")
	if !ok || email.Value != "carol@example.com" {
		t.Fatalf("unexpected email claim %+v", email)
	}
	props, ok := sess.Properties(ctx, "Application")
	if !ok || !props.IsPersistent {
		t.Fatal("expected persistent sign-in")
	}
	if hasPrincipal(t, sess, "TwoFactor") {
		t.Fatal("no pending principal expected")
	}
	if len(env.sender.messages()) != 0 {
		t.Fatal("no email expected without two-factor")
	}
	if env.engine.MetricsSnapshot().Counters[MetricPasswordSignInSuccess] != 1 {
		t.Fatal("expected success counter")
	}
}

func TestPasswordSignInFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.repo.add("dave@example.com", "Password1@", false, true)
	ctx := context.Background()

	for _, tc := range []struct{ email, password string }{
		{"dave@example.com", "wrong-password"},
		{"nobody@example.com", "Password1@"},
	} {
		sess := session.NewMemory()
		res, err := env.engine.PasswordSignIn(ctx, sess, tc.email, tc.password, SignInProperties{})
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.email, err)
		}
		if res != PasswordSignInFailed {
			t.Fatalf("%s: expected Failed, got %s", tc.email, res)
		}
		if sess.Schemes() != 0 {
			t.Fatalf("%s: failed sign-in must not write a principal", tc.email)
		}
	}
}

func TestPasswordSignInRepositoryErrorIsFatal(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.repo.getErr = errBackendDown

	res, err := env.engine.PasswordSignIn(context.Background(), session.NewMemory(), "a@example.com", "Password1@", SignInProperties{})
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if res != PasswordSignInFailed {
		t.Fatalf("expected Failed, got %s", res)
	}
}

func TestPasswordSignInTwoFactorEmailFailureStillPending(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.repo.add("erin@example.com", "Password1@", true, true)
	env.sender.err = errBackendDown
	sess := session.NewMemory()

	res, err := env.engine.PasswordSignIn(context.Background(), sess, "erin@example.com", "Password1@", SignInProperties{})
	if err != nil || res != PasswordSignInTwoFactorRequired {
		t.Fatalf("expected TwoFactorRequired without error, got %s (%v)", res, err)
	}
	if !hasPrincipal(t, sess, "TwoFactor") {
		t.Fatal("expected pending principal")
	}
	if env.engine.MetricsSnapshot().Counters[MetricEmailSendFailure] != 1 {
		t.Fatal("expected send failure counter")
	}
}

func TestSignOutClearsBothSchemesAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t, testConfig())
	account := env.repo.add("frank@example.com", "Password1@", false, true)
	sess := session.NewMemory()
	ctx := context.Background()

	if err := env.engine.SignIn(ctx, sess, account, SignInProperties{}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	addPendingPrincipal(t, env, sess, account)
	if sess.Schemes() != 2 {
		t.Fatalf("expected 2 schemes, got %d", sess.Schemes())
	}

	for i := 0; i < 2; i++ {
		if err := env.engine.SignOut(ctx, sess); err != nil {
			t.Fatalf("SignOut #%d failed: %v", i+1, err)
		}
		if sess.Schemes() != 0 {
			t.Fatalf("SignOut #%d left %d schemes", i+1, sess.Schemes())
		}
	}
}

func TestGetSignedInAccount(t *testing.T) {
	env := newTestEnv(t, testConfig())
	account := env.repo.add("gina@example.com", "Password1@", false, true)
	ctx := context.Background()
	b := env.engine.principals

	got, err := env.engine.GetSignedInAccount(ctx, b.CreatePrincipal(account.ID, "Application"))
	if err != nil || got == nil || got.ID != account.ID {
		t.Fatalf("expected account %d, got %+v (%v)", account.ID, got, err)
	}

	if got, err := env.engine.GetSignedInAccount(ctx, nil); got != nil || err != nil {
		t.Fatalf("nil principal: got %+v (%v)", got, err)
	}
	if got, err := env.engine.GetSignedInAccount(ctx, b.CreatePrincipal(account.ID, "TwoFactor")); got != nil || err != nil {
		t.Fatalf("pending principal: got %+v (%v)", got, err)
	}
	if got, err := env.engine.GetSignedInAccount(ctx, b.CreatePrincipal(999, "Application")); got != nil || err != nil {
		t.Fatalf("unknown id: got %+v (%v)", got, err)
	}
}

func TestSignInRequiresSessionAndAccount(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	if err := env.engine.SignIn(ctx, nil, &Account{ID: 1, SecurityStamp: "s"}, SignInProperties{}); !errors.Is(err, ErrNilSession) {
		t.Fatalf("expected ErrNilSession, got %v", err)
	}
	if err := env.engine.SignIn(ctx, session.NewMemory(), nil, SignInProperties{}); !errors.Is(err, ErrAccountRequired) {
		t.Fatalf("expected ErrAccountRequired, got %v", err)
	}

	var zero Engine
	if _, err := zero.PasswordSignIn(ctx, session.NewMemory(), "a", "b", SignInProperties{}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestRefreshSignInKeepsPersistence(t *testing.T) {
	env := newTestEnv(t, testConfig())
	account := env.repo.add("hank@example.com", "Password1@", false, true)
	sess := session.NewMemory()
	ctx := context.Background()

	if err := env.engine.SignIn(ctx, sess, account, SignInProperties{IsPersistent: true}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if _, err := env.repo.UpdateAccountPasswordHash(ctx, account.ID, "Password2@"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	fresh, _ := env.repo.GetAccount(ctx, account.ID)

	if err := env.engine.RefreshSignIn(ctx, sess, fresh); err != nil {
		t.Fatalf("RefreshSignIn failed: %v", err)
	}
	p, _ := sess.Authenticate(ctx, "Application")
	if stamp, _ := p.FindFirst("SecurityStamp"); stamp.Value != fresh.SecurityStamp {
		t.Fatal("expected refreshed stamp claim")
	}
	if props, _ := sess.Properties(ctx, "Application"); !props.IsPersistent {
		t.Fatal("expected persistence to be kept")
	}
}

func pendingAccountID(t *testing.T, sess *session.Memory) (int64, bool) {
	t.Helper()
	p, err := sess.Authenticate(context.Background(), "TwoFactor")
	if err != nil {
		t.Fatalf("Authenticate(TwoFactor) failed: %v", err)
	}
	if p == nil {
		return 0, false
	}
	return p.AccountID("AccountId")
}

func TestPendingSignInReplacesApplicationPrincipal(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.repo.add("alice@example.com", "Password1@", false, true)
	bob := env.repo.add("bob@example.com", "Password1@", true, true)
	sess := session.NewMemory()
	ctx := context.Background()

	if res, err := env.engine.PasswordSignIn(ctx, sess, "alice@example.com", "Password1@", SignInProperties{}); err != nil || res != PasswordSignInSucceeded {
		t.Fatalf("alice sign-in: %s (%v)", res, err)
	}
	if res, err := env.engine.PasswordSignIn(ctx, sess, "bob@example.com", "Password1@", SignInProperties{}); err != nil || res != PasswordSignInTwoFactorRequired {
		t.Fatalf("bob sign-in: %s (%v)", res, err)
	}

	if hasPrincipal(t, sess, "Application") {
		t.Fatal("previous account's application principal must be cleared")
	}
	if id, ok := pendingAccountID(t, sess); !ok || id != bob.ID {
		t.Fatalf("pending principal id = %d, %v", id, ok)
	}
}

func TestApplicationSignInClearsPendingPrincipal(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.repo.add("bob@example.com", "Password1@", true, true)
	env.repo.add("dave@example.com", "Password1@", false, true)
	ctx := context.Background()

	cases := map[string]func(sess *session.Memory) error{
		"password sign-in": func(sess *session.Memory) error {
			res, err := env.engine.PasswordSignIn(ctx, sess, "dave@example.com", "Password1@", SignInProperties{})
			if err == nil && res != PasswordSignInSucceeded {
				t.Fatalf("expected Succeeded, got %s", res)
			}
			return err
		},
		"create account": func(sess *session.Memory) error {
			res, err := env.engine.CreateAccount(ctx, sess, "carl@example.com", "Password1@")
			if err == nil && res != CreateAccountSucceeded {
				t.Fatalf("expected Succeeded, got %s", res)
			}
			return err
		},
	}

	for name, signIn := range cases {
		sess := session.NewMemory()
		if res, err := env.engine.PasswordSignIn(ctx, sess, "bob@example.com", "Password1@", SignInProperties{}); err != nil || res != PasswordSignInTwoFactorRequired {
			t.Fatalf("%s: bob sign-in: %s (%v)", name, res, err)
		}
		if err := signIn(sess); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !hasPrincipal(t, sess, "Application") {
			t.Fatalf("%s: expected application principal", name)
		}
		if _, ok := pendingAccountID(t, sess); ok {
			t.Fatalf("%s: pending principal must not survive an application sign-in", name)
		}
	}
}
