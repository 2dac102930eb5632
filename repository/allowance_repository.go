package repository

import (
	"context"
	"fmt"
	"math/big"

	"accrue/database"
	"accrue/models"
	"github.com/jackc/pgx/v5"
)

// AllowanceRepository implements the AllowanceRepository interface
type AllowanceRepository struct {
	q queryable
}

// NewAllowanceRepository creates a new allowance repository
func NewAllowanceRepository(db *database.DB) *AllowanceRepository {
	return &AllowanceRepository{q: db.Pool}
}

// newAllowanceRepositoryWithTx creates a new allowance repository with a transaction
func newAllowanceRepositoryWithTx(tx queryable) *AllowanceRepository {
	return &AllowanceRepository{q: tx}
}

// Get returns the allowance from owner to spender (zero if unset)
func (r *AllowanceRepository) Get(ctx context.Context, owner, spender string) (*big.Int, error) {
	query := `
		SELECT amount::text FROM allowances
		WHERE owner_address = $1 AND spender_address = $2
	`
	return r.get(ctx, query, owner, spender)
}

// GetForUpdate returns the allowance under a row lock (zero if unset)
func (r *AllowanceRepository) GetForUpdate(ctx context.Context, owner, spender string) (*big.Int, error) {
	query := `
		SELECT amount::text FROM allowances
		WHERE owner_address = $1 AND spender_address = $2
		FOR UPDATE
	`
	return r.get(ctx, query, owner, spender)
}

func (r *AllowanceRepository) get(ctx context.Context, query, owner, spender string) (*big.Int, error) {
	var amount string
	err := r.q.QueryRow(ctx, query, owner, spender).Scan(&amount)
	if err == pgx.ErrNoRows {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allowance %s -> %s: %w", owner, spender, err)
	}
	return parseBigInt(amount)
}

// ListByOwner returns all non-zero allowances granted by an owner
func (r *AllowanceRepository) ListByOwner(ctx context.Context, owner string) ([]*models.Allowance, error) {
	query := `
		SELECT owner_address, spender_address, amount::text, updated_at
		FROM allowances
		WHERE owner_address = $1 AND amount > 0
		ORDER BY spender_address
	`

	rows, err := r.q.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowances for %s: %w", owner, err)
	}
	defer rows.Close()

	var allowances []*models.Allowance
	for rows.Next() {
		var allowance models.Allowance
		var amount string

		err := rows.Scan(&allowance.Owner, &allowance.Spender, &amount, &allowance.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allowance: %w", err)
		}
		if allowance.Amount, err = parseBigInt(amount); err != nil {
			return nil, fmt.Errorf("failed to parse allowance amount: %w", err)
		}

		allowances = append(allowances, &allowance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allowances: %w", err)
	}

	return allowances, nil
}

// Set overwrites the allowance from owner to spender
func (r *AllowanceRepository) Set(ctx context.Context, owner, spender string, amount *big.Int) error {
	query := `
		INSERT INTO allowances (owner_address, spender_address, amount)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (owner_address, spender_address)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, owner, spender, amount.String()); err != nil {
		return fmt.Errorf("failed to set allowance %s -> %s: %w", owner, spender, err)
	}

	return nil
}
