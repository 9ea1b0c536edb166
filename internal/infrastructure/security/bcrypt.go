package security

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher implements ports.PasswordHasher with bcrypt. It also verifies
// digests carried over from services that hashed with passlib's bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost; out-of-range costs fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Recognizes reports whether encoded is a modular-crypt bcrypt digest.
func (h *BcryptHasher) Recognizes(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	// bcrypt rejects inputs over 72 bytes; the login path allows longer passwords.
	b, err := bcrypt.GenerateFromPassword(truncate72([]byte(password)), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), truncate72([]byte(password))) == nil
}

func truncate72(b []byte) []byte {
	if len(b) > 72 {
		return b[:72]
	}
	return b
}
