package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func alignedClock() *fakeClock {
	base := int64(1_800_000_000)
	base -= base % 180
	return &fakeClock{now: time.Unix(base, 0).UTC()}
}

func newProtector(t *testing.T, clock *fakeClock) *ProtectorProvider {
	t.Helper()
	signer, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("protector-test-secret"),
		Issuer:        "goaccount",
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	p, err := NewProtectorProvider(signer, time.Hour)
	if err != nil {
		t.Fatalf("NewProtectorProvider failed: %v", err)
	}
	return p
}

func newTOTP(t *testing.T, clock *fakeClock) *TOTPProvider {
	t.Helper()
	p, err := NewTOTPProvider(TOTPConfig{Now: clock.Now})
	if err != nil {
		t.Fatalf("NewTOTPProvider failed: %v", err)
	}
	return p
}

func TestProtectorRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newProtector(t, alignedClock())
	s := Subject{ID: 7, SecurityStamp: "stamp-1"}

	tok, err := p.Generate(ctx, PurposeEmailConfirmation, s)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Contains(tok, "stamp-1") {
		t.Fatal("token must not disclose the raw stamp")
	}
	if !p.Validate(ctx, PurposeEmailConfirmation, tok, s) {
		t.Fatal("expected token to validate")
	}
}

func TestProtectorFailsClosed(t *testing.T) {
	ctx := context.Background()
	clock := alignedClock()
	p := newProtector(t, clock)
	s := Subject{ID: 7, SecurityStamp: "stamp-1"}

	tok, err := p.Generate(ctx, PurposeEmailConfirmation, s)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	cases := map[string]struct {
		purpose string
		token   string
		subject Subject
	}{
		"purpose mismatch": {PurposePasswordReset, tok, s},
		"other account":    {PurposeEmailConfirmation, tok, Subject{ID: 8, SecurityStamp: "stamp-1"}},
		"rotated stamp":    {PurposeEmailConfirmation, tok, Subject{ID: 7, SecurityStamp: "stamp-2"}},
		"tampered":         {PurposeEmailConfirmation, tok[:len(tok)-2] + "xx", s},
		"garbage":          {PurposeEmailConfirmation, "not-a-token", s},
		"empty":            {PurposeEmailConfirmation, "", s},
		"empty stamp":      {PurposeEmailConfirmation, tok, Subject{ID: 7}},
	}
	for name, tc := range cases {
		if p.Validate(ctx, tc.purpose, tc.token, tc.subject) {
			t.Fatalf("%s: expected validation to fail", name)
		}
	}

	clock.now = clock.now.Add(2 * time.Hour)
	if p.Validate(ctx, PurposeEmailConfirmation, tok, s) {
		t.Fatal("expected expired token to fail")
	}
}

func TestGenerateRejectsIncompleteSubject(t *testing.T) {
	ctx := context.Background()
	clock := alignedClock()

	if _, err := newProtector(t, clock).Generate(ctx, PurposeEmailConfirmation, Subject{ID: 1}); !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
	if _, err := newTOTP(t, clock).Generate(ctx, PurposeTwoFactor, Subject{SecurityStamp: "s"}); !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
}

func TestTOTPCodeFormatAndSkewWindow(t *testing.T) {
	ctx := context.Background()
	clock := alignedClock()
	p := newTOTP(t, clock)
	s := Subject{ID: 42, SecurityStamp: "stamp-a"}

	code, err := p.Generate(ctx, PurposeTwoFactor, s)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !isNumeric(code, 6) {
		t.Fatalf("expected 6 digit code, got %q", code)
	}
	if !p.Validate(ctx, PurposeTwoFactor, code, s) {
		t.Fatal("expected code to validate in the same step")
	}

	clock.now = clock.now.Add(180 * time.Second)
	if !p.Validate(ctx, PurposeTwoFactor, code, s) {
		t.Fatal("expected code to validate one step later")
	}

	clock.now = clock.now.Add(180 * time.Second)
	if p.Validate(ctx, PurposeTwoFactor, code, s) {
		t.Fatal("expected code to fail two steps later")
	}
}

func TestTOTPRejectsMalformedCodes(t *testing.T) {
	ctx := context.Background()
	p := newTOTP(t, alignedClock())
	s := Subject{ID: 42, SecurityStamp: "stamp-a"}

	for _, code := range []string{"", "12345", "1234567", "12a456", " 12345", "１２３４５６"} {
		if p.Validate(ctx, PurposeTwoFactor, code, s) {
			t.Fatalf("expected %q to be rejected", code)
		}
	}
}

func TestTOTPBoundToStampAndPurpose(t *testing.T) {
	ctx := context.Background()
	p := newTOTP(t, alignedClock())
	s := Subject{ID: 42, SecurityStamp: "stamp-a"}

	code, err := p.Generate(ctx, PurposeTwoFactor, s)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if p.secret(PurposeTwoFactor, s) == p.secret(PurposeTwoFactor, Subject{ID: 42, SecurityStamp: "stamp-b"}) {
		t.Fatal("expected derived key to change with the stamp")
	}
	if p.secret(PurposeTwoFactor, s) == p.secret(PurposeEmailConfirmation, s) {
		t.Fatal("expected derived key to change with the purpose")
	}
	if p.Validate(ctx, PurposeTwoFactor, code, Subject{ID: 42}) {
		t.Fatal("expected missing stamp to fail")
	}
}

func TestTOTPConfigValidation(t *testing.T) {
	if _, err := NewTOTPProvider(TOTPConfig{Digits: 7}); err == nil {
		t.Fatal("expected 7 digits to be rejected")
	}
	if _, err := NewTOTPProvider(TOTPConfig{Period: 1500 * time.Millisecond}); err == nil {
		t.Fatal("expected fractional period to be rejected")
	}
	if _, err := NewTOTPProvider(TOTPConfig{Algorithm: "MD5"}); err == nil {
		t.Fatal("expected unknown algorithm to be rejected")
	}
	p, err := NewTOTPProvider(TOTPConfig{Digits: 8, Algorithm: "sha256"})
	if err != nil {
		t.Fatalf("NewTOTPProvider failed: %v", err)
	}
	code, err := p.Generate(context.Background(), PurposeTwoFactor, Subject{ID: 1, SecurityStamp: "s"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("expected 8 digit code, got %q", code)
	}
}

func TestRegistryStaticMapping(t *testing.T) {
	ctx := context.Background()
	clock := alignedClock()
	protector := newProtector(t, clock)
	totpProvider := newTOTP(t, clock)

	r, err := NewRegistry(map[string]string{
		PurposeEmailConfirmation: ProviderProtector,
		PurposeTwoFactor:         ProviderTOTP,
	}, protector, totpProvider)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	got, err := r.Provider(PurposeTwoFactor)
	if err != nil || got.Name() != ProviderTOTP {
		t.Fatalf("expected totp provider, got %v err=%v", got, err)
	}
	if _, err := r.Provider("Unknown"); !errors.Is(err, ErrUnmappedPurpose) {
		t.Fatalf("expected ErrUnmappedPurpose, got %v", err)
	}
	if r.Validate(ctx, "Unknown", "123456", Subject{ID: 1, SecurityStamp: "s"}) {
		t.Fatal("expected unmapped purpose to fail closed")
	}

	s := Subject{ID: 3, SecurityStamp: "s1"}
	tok, err := r.Generate(ctx, PurposeEmailConfirmation, s)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !r.Validate(ctx, PurposeEmailConfirmation, tok, s) {
		t.Fatal("expected registry to validate with mapped provider")
	}
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	_, err := NewRegistry(map[string]string{PurposeTwoFactor: "sms"}, newTOTP(t, alignedClock()))
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestValidateHonorsCancelledContext(t *testing.T) {
	clock := alignedClock()
	p := newProtector(t, clock)
	s := Subject{ID: 7, SecurityStamp: "stamp-1"}
	tok, err := p.Generate(context.Background(), PurposeEmailConfirmation, s)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if p.Validate(ctx, PurposeEmailConfirmation, tok, s) {
		t.Fatal("expected cancelled context to fail closed")
	}
}
