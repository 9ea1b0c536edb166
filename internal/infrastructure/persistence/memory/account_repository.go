package memory

import (
	"context"
	"sync"
	"time"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
	"github.com/amirhosseinghanipour/authgate/internal/domain"
	domerrors "github.com/amirhosseinghanipour/authgate/internal/domain/errors"
)

// AccountRepository is an in-memory ports.AccountRepository for development and tests.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]*domain.Account
	order    []domain.AccountID
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[domain.AccountID]*domain.Account)}
}

func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	if identifier == "" {
		return nil, nil
	}
	return r.FindByEmailOrPhone(ctx, identifier, identifier)
}

func (r *AccountRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Account, error) {
	if email == "" && phone == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		a := r.accounts[id]
		if (email != "" && a.Email == email) || (phone != "" && a.Phone == phone) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if account.Email != "" && a.Email == account.Email {
			return domerrors.ErrAlreadyExists
		}
		if account.Phone != "" && a.Phone == account.Phone {
			return domerrors.ErrAlreadyExists
		}
	}
	cp := *account
	r.accounts[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
	return nil
}

func (r *AccountRepository) UpdateFederatedFields(ctx context.Context, email, subjectID, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if email != "" {
		for _, a := range r.accounts {
			if a.Email == email {
				a.FederatedSubjectID = subjectID
				a.DisplayName = displayName
				a.UpdatedAt = time.Now()
				return nil
			}
		}
	}
	return domerrors.ErrAccountNotFound
}

func (r *AccountRepository) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored accounts.
func (r *AccountRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

var _ ports.AccountRepository = (*AccountRepository)(nil)
