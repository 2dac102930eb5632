package models

import (
	"math/big"
	"time"
)

// Account represents a ledger account with an interest-accruing balance.
// Principal is the stored balance excluding interest not yet folded in; Rate
// is the per-account accrual rate frozen when the balance first became
// non-zero (zero until then). Accounts are never deleted: burning to zero
// keeps the row, rate and timestamp intact.
type Account struct {
	Address     string    `db:"address"`
	Principal   *big.Int  `db:"principal"`
	Rate        *big.Int  `db:"rate"`
	LastSettled time.Time `db:"last_settled"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
