package auth

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
	"github.com/amirhosseinghanipour/authgate/internal/domain"
	domerrors "github.com/amirhosseinghanipour/authgate/internal/domain/errors"
)

// Input limits, checked before any store access.
const (
	MaxIdentifierLength = 255
	MaxPasswordLength   = 1000
)

// Validation reasons reported with OutcomeValidationError.
const (
	ReasonMissing           = "missing"
	ReasonIdentifierTooLong = "identifier too long"
	ReasonPasswordTooLong   = "password too long"
)

// Outcome classifies a single login decision.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeUserNotFound
	OutcomeLockedOut
	OutcomeInvalidPassword
	OutcomeValidationError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUserNotFound:
		return "user_not_found"
	case OutcomeLockedOut:
		return "locked_out"
	case OutcomeInvalidPassword:
		return "invalid_password"
	case OutcomeValidationError:
		return "validation_error"
	default:
		return "unknown"
	}
}

type LoginInput struct {
	Identifier string
	Password   string
	// Session is called with Identifier on success only. Optional.
	Session ports.SessionEstablisher
}

type LoginResult struct {
	Outcome Outcome
	Reason  string          // set for OutcomeValidationError
	Account *domain.Account // set when the identifier resolved to an account
	// Failures is the lockout counter after the decision.
	Failures uint
}

// Login is the login decision engine.
type Login struct {
	accounts ports.AccountRepository
	hasher   ports.PasswordHasher
	lockout  ports.LockoutTracker
}

func NewLogin(accounts ports.AccountRepository, hasher ports.PasswordHasher, lockout ports.LockoutTracker) *Login {
	return &Login{
		accounts: accounts,
		hasher:   hasher,
		lockout:  lockout,
	}
}

// Execute decides one login attempt. Business failures are reported through
// LoginResult.Outcome; the error is non-nil only when a collaborator failed,
// and wraps ErrStoreUnavailable or ErrSessionUnavailable.
func (uc *Login) Execute(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if reason := validateLogin(input.Identifier, input.Password); reason != "" {
		return &LoginResult{Outcome: OutcomeValidationError, Reason: reason}, nil
	}

	account, err := uc.accounts.FindByIdentifier(ctx, input.Identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domerrors.ErrStoreUnavailable, err)
	}
	// Unknown identifiers never touch the tracker.
	if account == nil {
		return &LoginResult{Outcome: OutcomeUserNotFound}, nil
	}

	release, err := uc.lockout.Acquire(ctx, input.Identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domerrors.ErrStoreUnavailable, err)
	}
	defer release()

	if uc.lockout.IsLocked(ctx, input.Identifier) {
		return &LoginResult{
			Outcome:  OutcomeLockedOut,
			Account:  account,
			Failures: uc.lockout.Failures(ctx, input.Identifier),
		}, nil
	}

	if account.HasPassword() && uc.hasher.Verify(input.Password, account.PasswordHash) {
		uc.lockout.RecordSuccess(ctx, input.Identifier)
		if input.Session != nil {
			if err := input.Session.Establish(ctx, input.Identifier); err != nil {
				return nil, fmt.Errorf("%w: %v", domerrors.ErrSessionUnavailable, err)
			}
		}
		return &LoginResult{Outcome: OutcomeSuccess, Account: account}, nil
	}

	n := uc.lockout.RecordFailure(ctx, input.Identifier)
	outcome := OutcomeInvalidPassword
	if n >= uc.lockout.Threshold() {
		outcome = OutcomeLockedOut
	}
	return &LoginResult{Outcome: outcome, Account: account, Failures: n}, nil
}

func validateLogin(identifier, password string) string {
	if identifier == "" || password == "" {
		return ReasonMissing
	}
	if utf8.RuneCountInString(identifier) > MaxIdentifierLength {
		return ReasonIdentifierTooLong
	}
	if utf8.RuneCountInString(password) > MaxPasswordLength {
		return ReasonPasswordTooLong
	}
	return ""
}
