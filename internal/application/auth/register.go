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

type RegisterInput struct {
	Email    string
	Phone    string
	Password string
}

// RegisterAccount creates password accounts after checking identifier uniqueness.
type RegisterAccount struct {
	accounts ports.AccountRepository
	hasher   ports.PasswordHasher
}

func NewRegisterAccount(accounts ports.AccountRepository, hasher ports.PasswordHasher) *RegisterAccount {
	return &RegisterAccount{accounts: accounts, hasher: hasher}
}

func (uc *RegisterAccount) Execute(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	if input.Password == "" || (input.Email == "" && input.Phone == "") {
		return nil, domerrors.ErrMissingFields
	}
	existing, err := uc.accounts.FindByEmailOrPhone(ctx, input.Email, input.Phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domerrors.ErrStoreUnavailable, err)
	}
	if existing != nil {
		return nil, domerrors.ErrAlreadyExists
	}
	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	account := &domain.Account{
		ID:           domain.NewAccountID(uuid.New()),
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.accounts.Insert(ctx, account); err != nil {
		// Lost a race with a concurrent registration; the store's unique index decided.
		if errors.Is(err, domerrors.ErrAlreadyExists) {
			return nil, domerrors.ErrAlreadyExists
		}
		return nil, fmt.Errorf("%w: %v", domerrors.ErrStoreUnavailable, err)
	}
	return account, nil
}
