package password

import "testing"

type countingHasher struct {
	Hasher
	hashes   int
	verifies int
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.hashes++
	return h.Hasher.Hash(password)
}

func (h *countingHasher) Verify(password, encoded string) (bool, error) {
	h.verifies++
	return h.Hasher.Verify(password, encoded)
}

func TestDecoyVerifiesAgainstCachedHash(t *testing.T) {
	a, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	h := &countingHasher{Hasher: a}
	d := NewDecoy(h)

	d.Verify("Password1@")
	d.Verify("another-password")

	if h.hashes != 1 {
		t.Fatalf("expected the decoy hash to be built once, got %d", h.hashes)
	}
	if h.verifies != 2 {
		t.Fatalf("expected a verification per call, got %d", h.verifies)
	}
}

func TestNilDecoyIsNoop(t *testing.T) {
	var d *Decoy
	d.Verify("Password1@")
}
