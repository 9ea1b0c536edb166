package ports

import (
	"context"

	"github.com/amirhosseinghanipour/authgate/internal/domain"
)

// AccountRepository is the narrow credential store contract. Lookups return
// (nil, nil) when nothing matches. Implementations enforce uniqueness of
// non-empty email and phone and report violations as domerrors.ErrAlreadyExists.
type AccountRepository interface {
	// FindByIdentifier returns the account whose email or phone equals identifier.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
	// FindByEmailOrPhone matches on whichever of email/phone is non-empty (OR).
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Account, error)
	Insert(ctx context.Context, account *domain.Account) error
	// UpdateFederatedFields overwrites the federated subject and display name of the
	// account with this email. Keyed by email so accounts created before ids were
	// assigned can still be linked.
	UpdateFederatedFields(ctx context.Context, email, subjectID, displayName string) error
	Ping(ctx context.Context) error
}
