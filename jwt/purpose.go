package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrPurposeMismatch is returned by [Manager.ParsePurpose] when a valid token
// was issued for a different purpose.
var ErrPurposeMismatch = errors.New("token purpose mismatch")

// PurposeClaims bind a short-lived token to one purpose, one subject and a
// digest of the subject's security stamp at issuance.
type PurposeClaims struct {
	Purpose   string `json:"pur"`
	StampHash string `json:"sth"`
	jwt.RegisteredClaims
}

// IssuePurpose signs a purpose token for subject that expires after ttl.
func (m *Manager) IssuePurpose(purpose, subject, stampHash string, ttl time.Duration) (string, error) {
	if purpose == "" || subject == "" {
		return "", errors.New("purpose and subject are required")
	}
	if ttl <= 0 {
		return "", errors.New("purpose token ttl must be > 0")
	}
	return m.Sign(PurposeClaims{
		Purpose:          purpose,
		StampHash:        stampHash,
		RegisteredClaims: m.Registered(subject, ttl),
	})
}

// ParsePurpose verifies tokenStr and checks it was issued for purpose.
// Tokens without an expiry are rejected.
func (m *Manager) ParsePurpose(tokenStr, purpose string) (*PurposeClaims, error) {
	claims := &PurposeClaims{}
	if err := m.Parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	if claims.Purpose != purpose {
		return nil, ErrPurposeMismatch
	}
	return claims, nil
}
