package auth

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/authgate/internal/domain"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/lockout"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/persistence/memory"
)

// plainHasher is a reversible test hasher that counts Verify calls. delay
// widens the window between the lockout check and the counter update.
type plainHasher struct {
	verifies atomic.Int32
	delay    time.Duration
}

func (h *plainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (h *plainHasher) Verify(password, hash string) bool {
	h.verifies.Add(1)
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	return strings.TrimPrefix(hash, "plain:") == password && strings.HasPrefix(hash, "plain:")
}

type recordingSession struct {
	identifiers []string
	err         error
}

func (s *recordingSession) Establish(ctx context.Context, identifier string) error {
	if s.err != nil {
		return s.err
	}
	s.identifiers = append(s.identifiers, identifier)
	return nil
}

var errConnRefused = errors.New("connection refused")

// failingRepo fails every call.
type failingRepo struct{}

func (failingRepo) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	return nil, errConnRefused
}

func (failingRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Account, error) {
	return nil, errConnRefused
}

func (failingRepo) Insert(ctx context.Context, account *domain.Account) error {
	return errConnRefused
}

func (failingRepo) UpdateFederatedFields(ctx context.Context, email, subjectID, displayName string) error {
	return errConnRefused
}

func (failingRepo) Ping(ctx context.Context) error { return errConnRefused }

type fixture struct {
	accounts *memory.AccountRepository
	hasher   *plainHasher
	tracker  *lockout.MemoryStore
	login    *Login
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		accounts: memory.NewAccountRepository(),
		hasher:   &plainHasher{},
		tracker:  lockout.NewMemoryStore(lockout.DefaultThreshold),
	}
	f.login = NewLogin(f.accounts, f.hasher, f.tracker)
	return f
}

func (f *fixture) seed(t *testing.T, email, phone, password string) *domain.Account {
	t.Helper()
	acc := &domain.Account{ID: domain.NewAccountID(uuid.New()), Email: email, Phone: phone}
	if password != "" {
		acc.PasswordHash, _ = f.hasher.Hash(password)
	}
	if err := f.accounts.Insert(context.Background(), acc); err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
	return acc
}

func (f *fixture) decide(t *testing.T, identifier, password string) *LoginResult {
	t.Helper()
	res, err := f.login.Execute(context.Background(), LoginInput{Identifier: identifier, Password: password})
	if err != nil {
		t.Fatalf("Execute(%q): %v", identifier, err)
	}
	return res
}
