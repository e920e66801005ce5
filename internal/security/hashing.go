package security

import "golang.org/x/crypto/bcrypt"

// Hasher wraps bcrypt with a configured work factor. Plaintext passwords
// pass through here and must never be logged or stored.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher clamped to bcrypt's valid cost range. A
// non-positive cost falls back to bcrypt's default; tests pass a low cost
// to keep hashing fast.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of password, ready for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare checks password against a stored hash. Returns nil on a match,
// bcrypt.ErrMismatchedHashAndPassword (or a parse error) otherwise.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}
