package testutil

import (
	"math/big"

	"accrue/models"
)

// Tokens returns n whole tokens scaled to the ledger's fixed-point precision
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// CreateTestLedgerEntry creates a test ledger entry
func CreateTestLedgerEntry(address string, entryType models.EntryType) *models.LedgerEntry {
	return &models.LedgerEntry{
		Address:         address,
		PrincipalBefore: new(big.Int),
		PrincipalAfter:  Tokens(100),
		ChangeAmount:    Tokens(100),
		EntryType:       entryType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestRateChange creates a test rate change entry
func CreateTestRateChange(oldRate, newRate int64, changedBy string) *models.RateChange {
	return &models.RateChange{
		OldRate:   big.NewInt(oldRate),
		NewRate:   big.NewInt(newRate),
		ChangedBy: changedBy,
	}
}
