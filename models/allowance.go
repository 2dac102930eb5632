package models

import (
	"math/big"
	"time"
)

// Allowance represents the amount a spender may move out of an owner's
// account through delegated transfers.
type Allowance struct {
	Owner     string    `db:"owner_address"`
	Spender   string    `db:"spender_address"`
	Amount    *big.Int  `db:"amount"`
	UpdatedAt time.Time `db:"updated_at"`
}
