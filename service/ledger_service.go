package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"accrue/accrual"
	"accrue/events"
	"accrue/models"

	log "github.com/sirupsen/logrus"
)

// ledgerService implements the LedgerService interface. Every mutating
// operation runs inside a single unit of work with the involved account rows
// locked, settles pending interest first, then applies the requested change.
type ledgerService struct {
	uowFactory UnitOfWorkFactory
	clock      Clock
	authorizer Authorizer
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, clock Clock, authorizer Authorizer) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		clock:      clock,
		authorizer: authorizer,
	}
}

func (s *ledgerService) requireRole(ctx context.Context, caller string, role Role) error {
	ok, err := s.authorizer.HasRole(ctx, caller, role)
	if err != nil {
		return fmt.Errorf("failed to check role %q for caller %s: %w", role, caller, err)
	}
	if !ok {
		return fmt.Errorf("%w: caller %s lacks role %q", ErrUnauthorized, caller, role)
	}
	return nil
}

// settleAccount folds interest accrued since the account's last settlement
// into its stored principal and advances last_settled to now. The account
// must be row-locked in the current transaction. Returns the interest
// credited; calling again at the same instant credits nothing.
func settleAccount(ctx context.Context, uow UnitOfWork, account *models.Account, now time.Time) (*big.Int, error) {
	elapsed := accrual.Elapsed(account.LastSettled, now)
	displayed, err := accrual.DisplayedBalance(account.Principal, account.Rate, elapsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compute displayed balance for %s: %w", account.Address, err)
	}

	interest := new(big.Int).Sub(displayed, account.Principal)
	if interest.Sign() <= 0 {
		// No interest due; still advance the settlement clock
		if err := uow.AccountRepository().UpdateSettlement(ctx, account.Address, account.Principal, now); err != nil {
			return nil, fmt.Errorf("failed to advance settlement time for %s: %w", account.Address, err)
		}
		account.LastSettled = now
		return new(big.Int), nil
	}

	principalBefore := new(big.Int).Set(account.Principal)

	if err := uow.AccountRepository().UpdateSettlement(ctx, account.Address, displayed, now); err != nil {
		return nil, fmt.Errorf("failed to settle interest for %s: %w", account.Address, err)
	}
	if err := uow.LedgerStateRepository().AddTotalSupply(ctx, interest); err != nil {
		return nil, fmt.Errorf("failed to add settled interest to supply: %w", err)
	}
	account.Principal = displayed
	account.LastSettled = now

	entry := &models.LedgerEntry{
		Address:         account.Address,
		PrincipalBefore: principalBefore,
		PrincipalAfter:  displayed,
		ChangeAmount:    interest,
		EntryType:       models.EntryTypeInterest,
		Metadata: map[string]any{
			"elapsed_seconds": elapsed,
			"rate":            account.Rate.String(),
		},
	}
	if err := RecordPrincipalChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record interest settlement for %s: %w", account.Address, err)
	}

	log.WithFields(log.Fields{
		"address":  account.Address,
		"interest": interest.String(),
		"elapsed":  elapsed,
	}).Debug("Settled accrued interest into principal")

	return interest, nil
}

// Mint creates amount of principal on to's account. If the account's balance
// was zero beforehand its accrual rate is frozen to the current global rate.
func (s *ledgerService) Mint(ctx context.Context, caller, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("mint amount must be positive")
	}
	if err := s.requireRole(ctx, caller, RoleMinter); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	now := s.clock.Now()

	account, created, err := uow.AccountRepository().GetOrCreateForUpdate(ctx, to, now)
	if err != nil {
		return fmt.Errorf("failed to load recipient account: %w", err)
	}
	if created {
		uow.EventBus().Publish(events.AccountCreatedEvent{Address: to})
	}

	if _, err := settleAccount(ctx, uow, account, now); err != nil {
		return err
	}

	// Zero-to-non-zero transition freezes the current global rate onto the
	// account. A balance that previously returned to zero re-freezes here.
	if account.Principal.Sign() == 0 {
		rate, err := uow.LedgerStateRepository().GetGlobalRate(ctx)
		if err != nil {
			return fmt.Errorf("failed to get global rate: %w", err)
		}
		if err := uow.AccountRepository().SetRate(ctx, to, rate); err != nil {
			return fmt.Errorf("failed to freeze rate for %s: %w", to, err)
		}
		account.Rate = rate
	}

	newPrincipal := new(big.Int).Add(account.Principal, amount)
	if err := accrual.CheckRange(newPrincipal); err != nil {
		return fmt.Errorf("minting %s to %s: %w", amount, to, err)
	}
	if err := uow.AccountRepository().UpdatePrincipal(ctx, to, newPrincipal); err != nil {
		return fmt.Errorf("failed to credit minted principal: %w", err)
	}
	if err := uow.LedgerStateRepository().AddTotalSupply(ctx, amount); err != nil {
		return fmt.Errorf("failed to add minted amount to supply: %w", err)
	}

	entry := &models.LedgerEntry{
		Address:         to,
		PrincipalBefore: account.Principal,
		PrincipalAfter:  newPrincipal,
		ChangeAmount:    amount,
		EntryType:       models.EntryTypeMint,
		Metadata: map[string]any{
			"minted_by": caller,
		},
	}
	if err := RecordPrincipalChange(ctx, uow, entry); err != nil {
		return fmt.Errorf("failed to record mint: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"to":     to,
		"amount": amount.String(),
		"rate":   account.Rate.String(),
	}).Info("Minted principal")

	return nil
}

// Burn destroys principal on from's account. The All variant burns the
// entire settled balance, leaving exactly zero.
func (s *ledgerService) Burn(ctx context.Context, caller, from string, amount models.Amount) (*big.Int, error) {
	if err := s.requireRole(ctx, caller, RoleMinter); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := s.clock.Now()

	account, err := uow.AccountRepository().GetForUpdate(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		if amount.IsAll() {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("%w: account %s has no balance", ErrInsufficientBalance, from)
	}

	if _, err := settleAccount(ctx, uow, account, now); err != nil {
		return nil, err
	}

	// For All, the settled principal is the entire displayed balance at this
	// instant, so burning it leaves exactly zero
	resolved, err := amount.Resolve(account.Principal)
	if err != nil {
		return nil, fmt.Errorf("invalid burn amount: %w", err)
	}
	if resolved.Sign() == 0 {
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return resolved, nil
	}

	if resolved.Cmp(account.Principal) > 0 {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, account.Principal, resolved)
	}

	newPrincipal := new(big.Int).Sub(account.Principal, resolved)
	if err := uow.AccountRepository().UpdatePrincipal(ctx, from, newPrincipal); err != nil {
		return nil, fmt.Errorf("failed to debit burned principal: %w", err)
	}
	if err := uow.LedgerStateRepository().AddTotalSupply(ctx, new(big.Int).Neg(resolved)); err != nil {
		return nil, fmt.Errorf("failed to subtract burned amount from supply: %w", err)
	}

	entry := &models.LedgerEntry{
		Address:         from,
		PrincipalBefore: account.Principal,
		PrincipalAfter:  newPrincipal,
		ChangeAmount:    new(big.Int).Neg(resolved),
		EntryType:       models.EntryTypeBurn,
		Metadata: map[string]any{
			"burned_by": caller,
		},
	}
	if err := RecordPrincipalChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record burn: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"from":   from,
		"amount": resolved.String(),
	}).Info("Burned principal")

	return resolved, nil
}

// Transfer moves amount from the caller's account to another account.
func (s *ledgerService) Transfer(ctx context.Context, from, to string, amount models.Amount) (*big.Int, error) {
	return s.transfer(ctx, from, from, to, amount)
}

// TransferFrom moves amount out of from's account on behalf of spender. A
// spender other than the owner consumes allowance; a short allowance fails
// with ErrUnauthorized.
func (s *ledgerService) TransferFrom(ctx context.Context, spender, from, to string, amount models.Amount) (*big.Int, error) {
	return s.transfer(ctx, spender, from, to, amount)
}

func (s *ledgerService) transfer(ctx context.Context, spender, from, to string, amount models.Amount) (*big.Int, error) {
	if from == to {
		return nil, fmt.Errorf("cannot transfer to the same account")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := s.clock.Now()

	// Lock the two account rows in address order so concurrent transfers
	// between the same pair cannot deadlock
	var fromAccount, toAccount *models.Account
	var created bool
	var err error
	if from < to {
		fromAccount, err = uow.AccountRepository().GetForUpdate(ctx, from)
		if err == nil {
			toAccount, created, err = uow.AccountRepository().GetOrCreateForUpdate(ctx, to, now)
		}
	} else {
		toAccount, created, err = uow.AccountRepository().GetOrCreateForUpdate(ctx, to, now)
		if err == nil {
			fromAccount, err = uow.AccountRepository().GetForUpdate(ctx, from)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	if fromAccount == nil {
		return nil, fmt.Errorf("%w: account %s has no balance", ErrInsufficientBalance, from)
	}
	if created {
		uow.EventBus().Publish(events.AccountCreatedEvent{Address: to})
	}

	// Settlements are independent per-account operations; order between the
	// two does not affect the outcome
	if _, err := settleAccount(ctx, uow, fromAccount, now); err != nil {
		return nil, err
	}
	if _, err := settleAccount(ctx, uow, toAccount, now); err != nil {
		return nil, err
	}

	resolved, err := amount.Resolve(fromAccount.Principal)
	if err != nil {
		return nil, fmt.Errorf("invalid transfer amount: %w", err)
	}
	if resolved.Sign() == 0 {
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return resolved, nil
	}

	if resolved.Cmp(fromAccount.Principal) > 0 {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromAccount.Principal, resolved)
	}

	// Delegated path: consume the spender's allowance over the owner
	if spender != from {
		allowance, err := uow.AllowanceRepository().GetForUpdate(ctx, from, spender)
		if err != nil {
			return nil, fmt.Errorf("failed to load allowance: %w", err)
		}
		if allowance.Cmp(resolved) < 0 {
			return nil, fmt.Errorf("%w: spender %s allowance %s below %s", ErrUnauthorized, spender, allowance, resolved)
		}
		remaining := new(big.Int).Sub(allowance, resolved)
		if err := uow.AllowanceRepository().Set(ctx, from, spender, remaining); err != nil {
			return nil, fmt.Errorf("failed to consume allowance: %w", err)
		}
	}

	// A zero-balance recipient inherits the sender's frozen rate, not the
	// current global rate: rate propagates like provenance
	if toAccount.Principal.Sign() == 0 {
		if err := uow.AccountRepository().SetRate(ctx, to, fromAccount.Rate); err != nil {
			return nil, fmt.Errorf("failed to inherit rate for %s: %w", to, err)
		}
		toAccount.Rate = fromAccount.Rate
	}

	newFromPrincipal := new(big.Int).Sub(fromAccount.Principal, resolved)
	newToPrincipal := new(big.Int).Add(toAccount.Principal, resolved)
	if err := accrual.CheckRange(newToPrincipal); err != nil {
		return nil, fmt.Errorf("transferring %s to %s: %w", resolved, to, err)
	}

	if err := uow.AccountRepository().UpdatePrincipal(ctx, from, newFromPrincipal); err != nil {
		return nil, fmt.Errorf("failed to debit sender: %w", err)
	}
	if err := uow.AccountRepository().UpdatePrincipal(ctx, to, newToPrincipal); err != nil {
		return nil, fmt.Errorf("failed to credit recipient: %w", err)
	}

	outEntry := &models.LedgerEntry{
		Address:         from,
		PrincipalBefore: fromAccount.Principal,
		PrincipalAfter:  newFromPrincipal,
		ChangeAmount:    new(big.Int).Neg(resolved),
		EntryType:       models.EntryTypeTransferOut,
		Metadata: map[string]any{
			"recipient": to,
			"spender":   spender,
		},
	}
	if err := RecordPrincipalChange(ctx, uow, outEntry); err != nil {
		return nil, fmt.Errorf("failed to record sender entry: %w", err)
	}

	inEntry := &models.LedgerEntry{
		Address:         to,
		PrincipalBefore: toAccount.Principal,
		PrincipalAfter:  newToPrincipal,
		ChangeAmount:    resolved,
		EntryType:       models.EntryTypeTransferIn,
		Metadata: map[string]any{
			"sender":  from,
			"spender": spender,
		},
	}
	if err := RecordPrincipalChange(ctx, uow, inEntry); err != nil {
		return nil, fmt.Errorf("failed to record recipient entry: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return resolved, nil
}

// Approve sets spender's allowance over the owner's account.
func (s *ledgerService) Approve(ctx context.Context, owner, spender string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("allowance must be non-negative")
	}
	if owner == spender {
		return fmt.Errorf("cannot approve yourself")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AllowanceRepository().Set(ctx, owner, spender, amount); err != nil {
		return fmt.Errorf("failed to set allowance: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Allowance returns spender's remaining allowance over owner's account.
func (s *ledgerService) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	allowance, err := uow.AllowanceRepository().Get(ctx, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to get allowance: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return allowance, nil
}

// ListAllowances returns all non-zero allowances granted by an owner.
func (s *ledgerService) ListAllowances(ctx context.Context, owner string) ([]*models.Allowance, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	allowances, err := uow.AllowanceRepository().ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list allowances: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return allowances, nil
}

// Settle folds pending interest into stored principal. Settling an account
// that has never been seen is a no-op.
func (s *ledgerService) Settle(ctx context.Context, address string) (*big.Int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := s.clock.Now()

	account, err := uow.AccountRepository().GetForUpdate(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return new(big.Int), nil
	}

	interest, err := settleAccount(ctx, uow, account, now)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return interest, nil
}

// BalanceOf returns the displayed balance including unsettled interest,
// computed against the clock's current time without mutating any state.
func (s *ledgerService) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	account, err := s.viewAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return new(big.Int), nil
	}

	elapsed := accrual.Elapsed(account.LastSettled, s.clock.Now())
	displayed, err := accrual.DisplayedBalance(account.Principal, account.Rate, elapsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compute displayed balance for %s: %w", address, err)
	}
	return displayed, nil
}

// GetPrincipal returns the stored principal excluding unsettled interest.
func (s *ledgerService) GetPrincipal(ctx context.Context, address string) (*big.Int, error) {
	account, err := s.viewAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return new(big.Int), nil
	}
	return account.Principal, nil
}

// GetUserRate returns the account's frozen accrual rate.
func (s *ledgerService) GetUserRate(ctx context.Context, address string) (*big.Int, error) {
	account, err := s.viewAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return new(big.Int), nil
	}
	return account.Rate, nil
}

// GetLastSettled returns the account's last settlement time, or the zero
// time for an account that has never been seen.
func (s *ledgerService) GetLastSettled(ctx context.Context, address string) (time.Time, error) {
	account, err := s.viewAccount(ctx, address)
	if err != nil {
		return time.Time{}, err
	}
	if account == nil {
		return time.Time{}, nil
	}
	return account.LastSettled, nil
}

// GetTotalSupply returns the total stored principal.
func (s *ledgerService) GetTotalSupply(ctx context.Context) (*big.Int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	supply, err := uow.LedgerStateRepository().GetTotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total supply: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return supply, nil
}

// GetHistory returns the account's principal-change history, newest first.
func (s *ledgerService) GetHistory(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.LedgerEntryRepository().GetByAddress(ctx, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entries, nil
}

func (s *ledgerService) viewAccount(ctx context.Context, address string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return account, nil
}
