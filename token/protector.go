package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
)

// DefaultProtectorTTL is the lifetime of protector tokens when none is configured.
const DefaultProtectorTTL = 24 * time.Hour

// ProtectorProvider issues signed, expiring tokens that embed a digest of the
// subject's security stamp. Rotating the stamp invalidates every outstanding token.
type ProtectorProvider struct {
	signer *jwt.Manager
	ttl    time.Duration
}

// NewProtectorProvider returns a provider signing with signer. A non-positive
// ttl selects [DefaultProtectorTTL].
func NewProtectorProvider(signer *jwt.Manager, ttl time.Duration) (*ProtectorProvider, error) {
	if signer == nil {
		return nil, errors.New("protector provider requires a signer")
	}
	if ttl <= 0 {
		ttl = DefaultProtectorTTL
	}
	return &ProtectorProvider{signer: signer, ttl: ttl}, nil
}

// Name implements [Provider].
func (p *ProtectorProvider) Name() string { return ProviderProtector }

// Generate implements [Provider].
func (p *ProtectorProvider) Generate(ctx context.Context, purpose string, s Subject) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !s.valid() {
		return "", ErrInvalidSubject
	}
	return p.signer.IssuePurpose(purpose, s.idString(), stampDigest(purpose, s), p.ttl)
}

// Validate implements [Provider].
func (p *ProtectorProvider) Validate(ctx context.Context, purpose, token string, s Subject) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if ctx.Err() != nil || token == "" || !s.valid() {
		return false
	}
	claims, err := p.signer.ParsePurpose(token, purpose)
	if err != nil {
		return false
	}
	if claims.Subject != s.idString() {
		return false
	}
	want := stampDigest(purpose, s)
	return subtle.ConstantTimeCompare([]byte(claims.StampHash), []byte(want)) == 1
}
