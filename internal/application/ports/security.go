package ports

import "context"

// PasswordHasher hashes and verifies passwords. Verify must be constant-time.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// SessionEstablisher marks the caller as logged in as identifier.
type SessionEstablisher interface {
	Establish(ctx context.Context, identifier string) error
}
