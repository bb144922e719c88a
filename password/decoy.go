package password

import "sync"

const decoyPassword = "decoy-password-never-stored"

// Decoy runs a password verification against a throwaway hash. Repositories
// call it when an email lookup misses, so an unknown address costs as much
// as a wrong password.
type Decoy struct {
	hasher Hasher
	once   sync.Once
	hash   string
}

// NewDecoy returns a decoy that hashes with h on first use.
func NewDecoy(h Hasher) *Decoy {
	return &Decoy{hasher: h}
}

// Verify checks password against the decoy hash and discards the result.
func (d *Decoy) Verify(password string) {
	if d == nil || d.hasher == nil {
		return
	}
	d.once.Do(func() {
		d.hash, _ = d.hasher.Hash(decoyPassword)
	})
	if d.hash == "" {
		return
	}
	_, _ = d.hasher.Verify(password, d.hash)
}
