package security

import "github.com/amirhosseinghanipour/authgate/internal/application/ports"

// Scheme is a PasswordHasher that can tell its own digests apart.
type Scheme interface {
	ports.PasswordHasher
	Recognizes(encoded string) bool
}

// MultiHasher hashes with the primary scheme and verifies with whichever
// scheme recognizes the digest, so stores can hold mixed digest formats.
type MultiHasher struct {
	primary Scheme
	schemes []Scheme
}

// NewMultiHasher returns a hasher that writes primary digests and also verifies the others.
func NewMultiHasher(primary Scheme, others ...Scheme) *MultiHasher {
	return &MultiHasher{
		primary: primary,
		schemes: append([]Scheme{primary}, others...),
	}
}

func (m *MultiHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *MultiHasher) Verify(password, encoded string) bool {
	for _, s := range m.schemes {
		if s.Recognizes(encoded) {
			return s.Verify(password, encoded)
		}
	}
	return false
}

var (
	_ ports.PasswordHasher = (*MultiHasher)(nil)
	_ Scheme               = (*Argon2Hasher)(nil)
	_ Scheme               = (*BcryptHasher)(nil)
)
