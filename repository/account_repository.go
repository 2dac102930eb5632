package repository

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"accrue/database"
	"accrue/models"
	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `
	address,
	principal::text,
	rate::text,
	last_settled,
	created_at,
	updated_at
`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	var principal, rate string

	err := row.Scan(
		&account.Address,
		&principal,
		&rate,
		&account.LastSettled,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if account.Principal, err = parseBigInt(principal); err != nil {
		return nil, fmt.Errorf("failed to parse principal: %w", err)
	}
	if account.Rate, err = parseBigInt(rate); err != nil {
		return nil, fmt.Errorf("failed to parse rate: %w", err)
	}

	return &account, nil
}

// GetByAddress retrieves an account by its address, or nil if never seen
func (r *AccountRepository) GetByAddress(ctx context.Context, address string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, address))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}

	return account, nil
}

// GetForUpdate retrieves an account under a row lock, or nil if never seen.
// Must be called inside a transaction.
func (r *AccountRepository) GetForUpdate(ctx context.Context, address string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, address))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", address, err)
	}

	return account, nil
}

// GetOrCreateForUpdate retrieves an account under a row lock, creating a
// zero-balance record first when the address has never been seen. Returns
// whether a new record was created.
func (r *AccountRepository) GetOrCreateForUpdate(ctx context.Context, address string, now time.Time) (*models.Account, bool, error) {
	insert := `
		INSERT INTO accounts (address, principal, rate, last_settled)
		VALUES ($1, 0, 0, $2)
		ON CONFLICT (address) DO NOTHING
	`

	tag, err := r.q.Exec(ctx, insert, address, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create account %s: %w", address, err)
	}
	created := tag.RowsAffected() > 0

	account, err := r.GetForUpdate(ctx, address)
	if err != nil {
		return nil, false, err
	}
	if account == nil {
		return nil, false, fmt.Errorf("account %s missing after upsert", address)
	}

	return account, created, nil
}

// SetRate overwrites the account's frozen accrual rate
func (r *AccountRepository) SetRate(ctx context.Context, address string, rate *big.Int) error {
	query := `
		UPDATE accounts
		SET rate = $1::numeric, updated_at = NOW()
		WHERE address = $2
	`

	result, err := r.q.Exec(ctx, query, rate.String(), address)
	if err != nil {
		return fmt.Errorf("failed to set rate for account %s: %w", address, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", address)
	}

	return nil
}

// UpdateSettlement writes the settled principal and advances last_settled
func (r *AccountRepository) UpdateSettlement(ctx context.Context, address string, principal *big.Int, lastSettled time.Time) error {
	query := `
		UPDATE accounts
		SET principal = $1::numeric, last_settled = $2, updated_at = NOW()
		WHERE address = $3
	`

	result, err := r.q.Exec(ctx, query, principal.String(), lastSettled, address)
	if err != nil {
		return fmt.Errorf("failed to update settlement for account %s: %w", address, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", address)
	}

	return nil
}

// UpdatePrincipal overwrites the stored principal
func (r *AccountRepository) UpdatePrincipal(ctx context.Context, address string, principal *big.Int) error {
	query := `
		UPDATE accounts
		SET principal = $1::numeric, updated_at = NOW()
		WHERE address = $2
	`

	result, err := r.q.Exec(ctx, query, principal.String(), address)
	if err != nil {
		return fmt.Errorf("failed to update principal for account %s: %w", address, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", address)
	}

	return nil
}

// GetAll returns all accounts
func (r *AccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
