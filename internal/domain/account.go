package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountID is a value object for account identity.
type AccountID struct{ uuid.UUID }

// NewAccountID creates a new AccountID from uuid.
func NewAccountID(id uuid.UUID) AccountID { return AccountID{UUID: id} }

// ParseAccountID parses the canonical string form.
func ParseAccountID(s string) (AccountID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID{UUID: id}, nil
}

// String returns the canonical string form.
func (a AccountID) String() string { return a.UUID.String() }

// Account is a login identity. Email and Phone are the login identifiers; an
// empty string means the field is absent. At least one of them is set.
type Account struct {
	ID                 AccountID
	Email              string
	Phone              string
	PasswordHash       string // empty for federated-only accounts
	FederatedSubjectID string
	DisplayName        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasPassword reports whether the account can log in with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// MatchesIdentifier reports whether identifier equals the account's email or phone.
func (a *Account) MatchesIdentifier(identifier string) bool {
	if identifier == "" {
		return false
	}
	return a.Email == identifier || a.Phone == identifier
}
