package token

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
)

// Built-in purposes.
const (
	PurposeEmailConfirmation = "EmailConfirmation"
	PurposeTwoFactor         = "TwoFactor"
	PurposePasswordReset     = "PasswordReset"
)

// Provider names accepted in a purpose map.
const (
	ProviderProtector = "protector"
	ProviderTOTP      = "totp"
)

var (
	// ErrUnknownProvider is returned by [NewRegistry] for a provider name outside the closed set.
	ErrUnknownProvider = errors.New("unknown token provider")
	// ErrUnmappedPurpose is returned when no provider is configured for a purpose.
	ErrUnmappedPurpose = errors.New("no token provider mapped for purpose")
	// ErrInvalidSubject is returned by Generate when the subject cannot carry a token.
	ErrInvalidSubject = errors.New("token subject requires id and security stamp")
)

// Subject is the account state a token is bound to.
type Subject struct {
	ID            int64
	SecurityStamp string
}

func (s Subject) valid() bool {
	return s.ID > 0 && s.SecurityStamp != ""
}

func (s Subject) idString() string {
	return strconv.FormatInt(s.ID, 10)
}

// Provider generates and validates purpose-scoped tokens for a subject.
//
// Validate must fail closed: malformed input, a purpose or subject mismatch,
// a stale security stamp or any internal error yields false.
type Provider interface {
	Name() string
	Generate(ctx context.Context, purpose string, s Subject) (string, error)
	Validate(ctx context.Context, purpose, token string, s Subject) bool
}

// Registry resolves the provider backing each purpose. It is built once and
// never mutated afterwards.
type Registry struct {
	byPurpose map[string]Provider
}

// NewRegistry maps each purpose to the named provider in providers. Every
// name in purposes must be present in providers.
func NewRegistry(purposes map[string]string, providers ...Provider) (*Registry, error) {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		byName[p.Name()] = p
	}

	r := &Registry{byPurpose: make(map[string]Provider, len(purposes))}
	for purpose, name := range purposes {
		if purpose == "" {
			return nil, errors.New("token purpose must not be empty")
		}
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q for purpose %q", ErrUnknownProvider, name, purpose)
		}
		r.byPurpose[purpose] = p
	}
	return r, nil
}

// Provider returns the provider mapped to purpose.
func (r *Registry) Provider(purpose string) (Provider, error) {
	if r == nil {
		return nil, ErrUnmappedPurpose
	}
	p, ok := r.byPurpose[purpose]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnmappedPurpose, purpose)
	}
	return p, nil
}

// Generate issues a token for purpose with the mapped provider.
func (r *Registry) Generate(ctx context.Context, purpose string, s Subject) (string, error) {
	p, err := r.Provider(purpose)
	if err != nil {
		return "", err
	}
	return p.Generate(ctx, purpose, s)
}

// Validate checks token for purpose with the mapped provider. An unmapped
// purpose never validates.
func (r *Registry) Validate(ctx context.Context, purpose, token string, s Subject) bool {
	p, err := r.Provider(purpose)
	if err != nil {
		return false
	}
	return p.Validate(ctx, purpose, token, s)
}

// stampDigest hides the raw stamp while keeping tokens bound to it.
func stampDigest(purpose string, s Subject) string {
	sum := sha256.Sum256([]byte(purpose + "\x00" + s.idString() + "\x00" + s.SecurityStamp))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
