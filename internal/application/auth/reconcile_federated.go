package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
	"github.com/amirhosseinghanipour/authgate/internal/domain"
	domerrors "github.com/amirhosseinghanipour/authgate/internal/domain/errors"
)

// FederatedIdentity is what we keep from a verified provider assertion (Goth user).
type FederatedIdentity struct {
	Provider    string
	SubjectID   string
	Email       string
	DisplayName string
}

// ReconcileFederated links a federated identity to the account with the same
// email, or creates a passwordless account for it.
type ReconcileFederated struct {
	accounts ports.AccountRepository
}

func NewReconcileFederated(accounts ports.AccountRepository) *ReconcileFederated {
	return &ReconcileFederated{accounts: accounts}
}

// Execute is idempotent: the latest assertion always wins for subject id and
// display name, and an existing password digest is never touched.
func (uc *ReconcileFederated) Execute(ctx context.Context, identity FederatedIdentity) (*domain.Account, error) {
	if identity.Email == "" {
		return nil, domerrors.ErrMissingEmail
	}
	account, err := uc.accounts.FindByEmailOrPhone(ctx, identity.Email, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domerrors.ErrStoreUnavailable, err)
	}
	if account == nil {
		account, err = uc.create(ctx, identity)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, domerrors.ErrAlreadyExists) {
			return nil, err
		}
		// A concurrent login created it first; link to that one.
		account, err = uc.accounts.FindByEmailOrPhone(ctx, identity.Email, "")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domerrors.ErrStoreUnavailable, err)
		}
		if account == nil {
			return nil, fmt.Errorf("%w: account vanished after duplicate insert", domerrors.ErrStoreUnavailable)
		}
	}
	if err := uc.accounts.UpdateFederatedFields(ctx, identity.Email, identity.SubjectID, identity.DisplayName); err != nil {
		return nil, fmt.Errorf("%w: %v", domerrors.ErrStoreUnavailable, err)
	}
	account.FederatedSubjectID = identity.SubjectID
	account.DisplayName = identity.DisplayName
	return account, nil
}

func (uc *ReconcileFederated) create(ctx context.Context, identity FederatedIdentity) (*domain.Account, error) {
	now := time.Now()
	account := &domain.Account{
		ID:                 domain.NewAccountID(uuid.New()),
		Email:              identity.Email,
		FederatedSubjectID: identity.SubjectID,
		DisplayName:        identity.DisplayName,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.accounts.Insert(ctx, account); err != nil {
		if errors.Is(err, domerrors.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domerrors.ErrStoreUnavailable, err)
	}
	return account, nil
}
