package models

import (
	"math/big"
	"time"
)

// EntryType represents the kind of principal change a ledger entry records.
type EntryType string

const (
	EntryTypeMint        EntryType = "mint"
	EntryTypeBurn        EntryType = "burn"
	EntryTypeTransferIn  EntryType = "transfer_in"
	EntryTypeTransferOut EntryType = "transfer_out"
	EntryTypeInterest    EntryType = "interest"
)

// LedgerEntry represents a historical principal change for an account,
// including interest settlements.
type LedgerEntry struct {
	ID              int64          `db:"id"`
	Address         string         `db:"address"`
	PrincipalBefore *big.Int       `db:"principal_before"`
	PrincipalAfter  *big.Int       `db:"principal_after"`
	ChangeAmount    *big.Int       `db:"change_amount"`
	EntryType       EntryType      `db:"entry_type"`
	Metadata        map[string]any `db:"metadata"`
	CreatedAt       time.Time      `db:"created_at"`
}
