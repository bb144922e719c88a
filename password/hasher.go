package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPassBytes = 8
	maxPassBytes = 256
)

// ErrPasswordLength is returned for passwords outside the accepted length range.
var ErrPasswordLength = errors.New("password must be between 8 and 256 bytes")

// Hasher hashes new passwords and verifies stored hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsRehash(encoded string) bool
}

// Chain hashes with Argon2id and additionally verifies legacy bcrypt hashes so
// imported accounts keep working until their next password change.
type Chain struct {
	primary *Argon2
}

// NewChain returns a hasher backed by primary.
func NewChain(primary *Argon2) (*Chain, error) {
	if primary == nil {
		return nil, errors.New("primary hasher is required")
	}
	return &Chain{primary: primary}, nil
}

// NewDefault returns a [Chain] over [DefaultConfig].
func NewDefault() *Chain {
	a, err := NewArgon2(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return &Chain{primary: a}
}

func (c *Chain) Hash(password string) (string, error) {
	return c.primary.Hash(password)
}

func (c *Chain) Verify(password, encoded string) (bool, error) {
	switch {
	case c.primary.handles(encoded):
		return c.primary.Verify(password, encoded)
	case isBcrypt(encoded):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	default:
		return false, errors.New("unrecognized password hash format")
	}
}

// NeedsRehash reports true for every legacy bcrypt hash.
func (c *Chain) NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		return true
	}
	return c.primary.NeedsRehash(encoded)
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") || strings.HasPrefix(encoded, "$2b$") || strings.HasPrefix(encoded, "$2y$")
}

func checkLength(password string) error {
	if len(password) < minPassBytes || len(password) > maxPassBytes {
		return ErrPasswordLength
	}
	return nil
}
