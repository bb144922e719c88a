package goAccount

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goAccount/session"
	"github.com/MrEthical07/goAccount/token"
)

func TestSignUpSignsInAndSendsOneConfirmation(t *testing.T) {
	env := newTestEnv(t, testConfig())
	sess := session.NewMemory()
	ctx := context.Background()

	res, err := env.engine.CreateAccount(ctx, sess, "alice@example.com", "Password1@")
	if err != nil || res != CreateAccountSucceeded {
		t.Fatalf("expected Succeeded, got %s (%v)", res, err)
	}

	p, _ := sess.Authenticate(ctx, "Application")
	if p == nil {
		t.Fatal("expected auto-login after sign-up")
	}
	if props, _ := sess.Properties(ctx, "Application"); props.IsPersistent {
		t.Fatal("auto-login must not be persistent")
	}

	msgs := env.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one email, got %d", len(msgs))
	}
	if msgs[0].Subject != "confirmation email" || msgs[0].Recipient != "alice@example.com" {
		t.Fatalf("unexpected email %+v", msgs[0])
	}

	account, err := env.repo.GetAccountByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	tok := tokenFromBody(t, msgs[0].Body, "your link:")
	if !env.engine.tokens.Validate(ctx, token.PurposeEmailConfirmation, tok, account.subject()) {
		t.Fatal("emailed token must validate for EmailConfirmation")
	}
	if env.engine.tokens.Validate(ctx, token.PurposePasswordReset, tok, account.subject()) {
		t.Fatal("confirmation token must not validate for another purpose")
	}
}

func TestCreateAccountDuplicateEmailFails(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	first, err := env.engine.CreateAccount(ctx, session.NewMemory(), "dup@example.com", "Password1@")
	if err != nil || first != CreateAccountSucceeded {
		t.Fatalf("first: %s (%v)", first, err)
	}

	sess := session.NewMemory()
	second, err := env.engine.CreateAccount(ctx, sess, "dup@example.com", "Password2@")
	if err != nil || second != CreateAccountFailed {
		t.Fatalf("second: expected Failed, got %s (%v)", second, err)
	}
	if sess.Schemes() != 0 {
		t.Fatal("duplicate sign-up must not sign in")
	}
	if n := env.repo.count("dup@example.com"); n != 1 {
		t.Fatalf("expected exactly one account, got %d", n)
	}
	if env.engine.MetricsSnapshot().Counters[MetricAccountDuplicate] != 1 {
		t.Fatal("expected duplicate counter")
	}
}

func TestCreateAccountNilAccountIsFatal(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.repo.nilOnCreate = true

	res, err := env.engine.CreateAccount(context.Background(), session.NewMemory(), "nil@example.com", "Password1@")
	if !errors.Is(err, ErrNilAccount) || res != CreateAccountFailed {
		t.Fatalf("expected ErrNilAccount, got %s (%v)", res, err)
	}
}

func TestCreateAccountStorageErrorPropagates(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.repo.createErr = errBackendDown

	res, err := env.engine.CreateAccount(context.Background(), session.NewMemory(), "x@example.com", "Password1@")
	if !errors.Is(err, errBackendDown) || res != CreateAccountFailed {
		t.Fatalf("expected backend error, got %s (%v)", res, err)
	}
}

func TestCreateAccountEmailFailureStillSignsIn(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.sender.err = errBackendDown
	sess := session.NewMemory()

	res, err := env.engine.CreateAccount(context.Background(), sess, "y@example.com", "Password1@")
	if err != nil || res != CreateAccountSucceeded {
		t.Fatalf("expected Succeeded, got %s (%v)", res, err)
	}
	if !hasPrincipal(t, sess, "Application") {
		t.Fatal("expected sign-in despite email failure")
	}
}
