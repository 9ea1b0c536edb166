package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
	"github.com/amirhosseinghanipour/authgate/internal/domain"
	domerrors "github.com/amirhosseinghanipour/authgate/internal/domain/errors"
)

const uniqueViolation = "23505"

// Absent identifiers and digests are stored as NULL so the partial unique
// indexes only cover real values.
const (
	createAccountsSQL = `CREATE TABLE IF NOT EXISTS accounts (
	id                   UUID PRIMARY KEY,
	email                TEXT,
	phone                TEXT,
	password_hash        TEXT,
	federated_subject_id TEXT,
	display_name         TEXT,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	createEmailIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_key ON accounts (email) WHERE email IS NOT NULL`
	createPhoneIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS accounts_phone_key ON accounts (phone) WHERE phone IS NOT NULL`

	accountColumns = `id, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(password_hash, ''),
	COALESCE(federated_subject_id, ''), COALESCE(display_name, ''), created_at, updated_at`

	findByIdentifierSQL   = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 OR phone = $1 LIMIT 1`
	findByEmailOrPhoneSQL = `SELECT ` + accountColumns + ` FROM accounts
	WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2) LIMIT 1`
	insertAccountSQL = `INSERT INTO accounts (id, email, phone, password_hash, federated_subject_id, display_name, created_at, updated_at)
	VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8)`
	updateFederatedSQL = `UPDATE accounts SET federated_subject_id = NULLIF($1, ''), display_name = NULLIF($2, ''), updated_at = NOW() WHERE email = $3`
)

// querier is the subset of *pgxpool.Pool the repository needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// AccountRepository implements ports.AccountRepository via raw SQL on pgx.
type AccountRepository struct {
	pool querier
}

func NewAccountRepository(pool querier) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Migrate creates the accounts table and its unique indexes if missing.
func (r *AccountRepository) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createAccountsSQL, createEmailIndexSQL, createPhoneIndexSQL} {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	if identifier == "" {
		return nil, nil
	}
	return r.scanOne(r.pool.QueryRow(ctx, findByIdentifierSQL, identifier))
}

func (r *AccountRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Account, error) {
	if email == "" && phone == "" {
		return nil, nil
	}
	return r.scanOne(r.pool.QueryRow(ctx, findByEmailOrPhoneSQL, email, phone))
}

func (r *AccountRepository) scanOne(row pgx.Row) (*domain.Account, error) {
	var (
		id uuid.UUID
		a  domain.Account
	)
	err := row.Scan(&id, &a.Email, &a.Phone, &a.PasswordHash, &a.FederatedSubjectID, &a.DisplayName, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.ID = domain.NewAccountID(id)
	return &a, nil
}

func (r *AccountRepository) Insert(ctx context.Context, account *domain.Account) error {
	created, updated := account.CreatedAt, account.UpdatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if updated.IsZero() {
		updated = created
	}
	_, err := r.pool.Exec(ctx, insertAccountSQL,
		account.ID.UUID, account.Email, account.Phone, account.PasswordHash,
		account.FederatedSubjectID, account.DisplayName, created, updated)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domerrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *AccountRepository) UpdateFederatedFields(ctx context.Context, email, subjectID, displayName string) error {
	tag, err := r.pool.Exec(ctx, updateFederatedSQL, subjectID, displayName, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

var _ ports.AccountRepository = (*AccountRepository)(nil)
