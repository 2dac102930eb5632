package models

import (
	"math/big"
	"time"
)

// RateChange represents an accepted change of the system-wide accrual rate.
// The global rate only ever moves down, so OldRate >= NewRate on every row.
type RateChange struct {
	ID        int64     `db:"id"`
	OldRate   *big.Int  `db:"old_rate"`
	NewRate   *big.Int  `db:"new_rate"`
	ChangedBy string    `db:"changed_by"`
	CreatedAt time.Time `db:"created_at"`
}
