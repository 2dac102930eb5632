package repository

import (
	"context"
	"fmt"
	"math/big"

	"accrue/database"
)

// LedgerStateRepository implements the LedgerStateRepository interface over
// the single global state row.
type LedgerStateRepository struct {
	q queryable
}

// NewLedgerStateRepository creates a new ledger state repository
func NewLedgerStateRepository(db *database.DB) *LedgerStateRepository {
	return &LedgerStateRepository{q: db.Pool}
}

// newLedgerStateRepositoryWithTx creates a new ledger state repository with a transaction
func newLedgerStateRepositoryWithTx(tx queryable) *LedgerStateRepository {
	return &LedgerStateRepository{q: tx}
}

// Init inserts the state row with the given genesis rate if absent. The rate
// can only move down afterwards, so the genesis value is the ceiling for the
// system's lifetime.
func (r *LedgerStateRepository) Init(ctx context.Context, initialRate *big.Int) error {
	query := `
		INSERT INTO ledger_state (id, current_rate, total_supply)
		VALUES (TRUE, $1::numeric, 0)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, initialRate.String()); err != nil {
		return fmt.Errorf("failed to initialize ledger state: %w", err)
	}
	return nil
}

// GetGlobalRate returns the current system-wide accrual rate
func (r *LedgerStateRepository) GetGlobalRate(ctx context.Context) (*big.Int, error) {
	return r.getRate(ctx, `SELECT current_rate::text FROM ledger_state`)
}

// GetGlobalRateForUpdate returns the rate under a row lock
func (r *LedgerStateRepository) GetGlobalRateForUpdate(ctx context.Context) (*big.Int, error) {
	return r.getRate(ctx, `SELECT current_rate::text FROM ledger_state FOR UPDATE`)
}

func (r *LedgerStateRepository) getRate(ctx context.Context, query string) (*big.Int, error) {
	var rate string
	if err := r.q.QueryRow(ctx, query).Scan(&rate); err != nil {
		return nil, fmt.Errorf("failed to get global rate: %w", err)
	}
	return parseBigInt(rate)
}

// SetGlobalRate overwrites the system-wide accrual rate. Monotonicity is
// enforced by the rate service, not here.
func (r *LedgerStateRepository) SetGlobalRate(ctx context.Context, rate *big.Int) error {
	query := `UPDATE ledger_state SET current_rate = $1::numeric, updated_at = NOW()`

	result, err := r.q.Exec(ctx, query, rate.String())
	if err != nil {
		return fmt.Errorf("failed to set global rate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("ledger state not initialized")
	}

	return nil
}

// GetTotalSupply returns the sum of all stored principal
func (r *LedgerStateRepository) GetTotalSupply(ctx context.Context) (*big.Int, error) {
	var supply string
	if err := r.q.QueryRow(ctx, `SELECT total_supply::text FROM ledger_state`).Scan(&supply); err != nil {
		return nil, fmt.Errorf("failed to get total supply: %w", err)
	}
	return parseBigInt(supply)
}

// AddTotalSupply adjusts the total supply by delta (may be negative)
func (r *LedgerStateRepository) AddTotalSupply(ctx context.Context, delta *big.Int) error {
	query := `UPDATE ledger_state SET total_supply = total_supply + $1::numeric, updated_at = NOW()`

	result, err := r.q.Exec(ctx, query, delta.String())
	if err != nil {
		return fmt.Errorf("failed to adjust total supply: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("ledger state not initialized")
	}

	return nil
}
