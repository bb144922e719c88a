package session

import (
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/principal"
	gjwt "github.com/golang-jwt/jwt/v5"
)

// ErrSchemeMismatch is returned when a decoded principal belongs to another scheme.
var ErrSchemeMismatch = errors.New("session scheme mismatch")

// Properties control how a sign-in is persisted by the transport.
type Properties struct {
	IsPersistent bool
}

type principalClaims struct {
	Scheme     string            `json:"sch"`
	Claims     []principal.Claim `json:"clm"`
	Persistent bool              `json:"per,omitempty"`
	gjwt.RegisteredClaims
}

// Codec turns principals into signed, expiring tokens and back.
type Codec struct {
	signer *jwt.Manager
}

// NewCodec returns a codec signing with signer.
func NewCodec(signer *jwt.Manager) (*Codec, error) {
	if signer == nil {
		return nil, errors.New("session codec requires a signer")
	}
	return &Codec{signer: signer}, nil
}

// Encode signs p so that it expires after ttl.
func (c *Codec) Encode(p *principal.Principal, props Properties, ttl time.Duration) (string, error) {
	if p == nil || p.Scheme == "" {
		return "", errors.New("principal with scheme is required")
	}
	if ttl <= 0 {
		return "", errors.New("session ttl must be > 0")
	}
	return c.signer.Sign(principalClaims{
		Scheme:           p.Scheme,
		Claims:           p.Claims,
		Persistent:       props.IsPersistent,
		RegisteredClaims: c.signer.Registered("", ttl),
	})
}

// Decode verifies token and returns the principal it carries. The principal
// must belong to scheme.
func (c *Codec) Decode(token, scheme string) (*principal.Principal, Properties, error) {
	claims := &principalClaims{}
	if err := c.signer.Parse(token, claims); err != nil {
		return nil, Properties{}, err
	}
	if claims.ExpiresAt == nil {
		return nil, Properties{}, gjwt.ErrTokenRequiredClaimMissing
	}
	if claims.Scheme != scheme {
		return nil, Properties{}, ErrSchemeMismatch
	}
	return &principal.Principal{Scheme: claims.Scheme, Claims: claims.Claims}, Properties{IsPersistent: claims.Persistent}, nil
}
