package service

import (
	"context"
	"fmt"
	"math/big"

	"accrue/events"
	"accrue/models"

	log "github.com/sirupsen/logrus"
)

// rateService implements the RateService interface. The global rate is
// monotonically non-increasing: earlier depositors are never penalized
// relative to later ones.
type rateService struct {
	uowFactory UnitOfWorkFactory
	authorizer Authorizer
}

// NewRateService creates a new rate service
func NewRateService(uowFactory UnitOfWorkFactory, authorizer Authorizer) RateService {
	return &rateService{
		uowFactory: uowFactory,
		authorizer: authorizer,
	}
}

// SetGlobalRate lowers the system-wide accrual rate offered to new
// depositors. Attempts to raise it fail with ErrRateIncreaseRejected before
// any state change.
func (s *rateService) SetGlobalRate(ctx context.Context, caller string, newRate *big.Int) error {
	if newRate == nil || newRate.Sign() < 0 {
		return fmt.Errorf("rate must be non-negative")
	}

	ok, err := s.authorizer.HasRole(ctx, caller, RoleRateAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role %q for caller %s: %w", RoleRateAdmin, caller, err)
	}
	if !ok {
		return fmt.Errorf("%w: caller %s lacks role %q", ErrUnauthorized, caller, RoleRateAdmin)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	current, err := uow.LedgerStateRepository().GetGlobalRateForUpdate(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current rate: %w", err)
	}

	if newRate.Cmp(current) > 0 {
		return fmt.Errorf("%w: current %s, requested %s", ErrRateIncreaseRejected, current, newRate)
	}

	if err := uow.LedgerStateRepository().SetGlobalRate(ctx, newRate); err != nil {
		return fmt.Errorf("failed to set global rate: %w", err)
	}

	change := &models.RateChange{
		OldRate:   current,
		NewRate:   newRate,
		ChangedBy: caller,
	}
	if err := uow.RateChangeRepository().Record(ctx, change); err != nil {
		return fmt.Errorf("failed to record rate change: %w", err)
	}

	uow.EventBus().Publish(events.RateChangedEvent{
		ChangedBy: caller,
		OldRate:   current,
		NewRate:   newRate,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"oldRate":   current.String(),
		"newRate":   newRate.String(),
		"changedBy": caller,
	}).Info("Lowered global accrual rate")

	return nil
}

// GetGlobalRate returns the current system-wide accrual rate.
func (s *rateService) GetGlobalRate(ctx context.Context) (*big.Int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rate, err := uow.LedgerStateRepository().GetGlobalRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get global rate: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rate, nil
}

// ListRateChanges returns accepted rate changes, newest first.
func (s *rateService) ListRateChanges(ctx context.Context, limit int) ([]*models.RateChange, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	changes, err := uow.RateChangeRepository().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rate changes: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return changes, nil
}
