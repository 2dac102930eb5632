package service

import (
	"context"
	"fmt"
	"math/big"

	"accrue/events"
	"accrue/models"
)

// RecordPrincipalChange records a ledger entry and emits the matching event.
// This is the single entry point for all principal changes in the system.
func RecordPrincipalChange(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	// Record the ledger entry
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	// Emit the matching event (flushed after the transaction commits).
	// Transfer entries come in pairs; only the outgoing side emits so each
	// transfer produces exactly one event.
	switch entry.EntryType {
	case models.EntryTypeInterest:
		uow.EventBus().Publish(events.InterestSettledEvent{
			Address:      entry.Address,
			Interest:     entry.ChangeAmount,
			NewPrincipal: entry.PrincipalAfter,
		})
	case models.EntryTypeMint:
		uow.EventBus().Publish(events.MintedEvent{
			To:     entry.Address,
			Amount: entry.ChangeAmount,
		})
	case models.EntryTypeBurn:
		uow.EventBus().Publish(events.BurnedEvent{
			From:   entry.Address,
			Amount: new(big.Int).Abs(entry.ChangeAmount),
		})
	case models.EntryTypeTransferOut:
		recipient, _ := entry.Metadata["recipient"].(string)
		uow.EventBus().Publish(events.TransferredEvent{
			From:   entry.Address,
			To:     recipient,
			Amount: new(big.Int).Abs(entry.ChangeAmount),
		})
	}

	return nil
}
