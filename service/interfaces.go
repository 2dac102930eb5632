package service

import (
	"context"
	"math/big"
	"time"

	"accrue/events"
	"accrue/models"
)

// AccountRepository defines the interface for account data access. It is a
// dumb store: the rate and last-settled bookkeeping rules live in the ledger
// service, never here.
type AccountRepository interface {
	// GetByAddress retrieves an account, or nil if it has never been seen
	GetByAddress(ctx context.Context, address string) (*models.Account, error)

	// GetForUpdate retrieves an account under a row lock, or nil if missing.
	// Must be called inside a transaction.
	GetForUpdate(ctx context.Context, address string) (*models.Account, error)

	// GetOrCreateForUpdate retrieves an account under a row lock, creating a
	// zero-balance record first when the address has never been seen
	GetOrCreateForUpdate(ctx context.Context, address string, now time.Time) (*models.Account, bool, error)

	// SetRate overwrites the account's frozen accrual rate
	SetRate(ctx context.Context, address string, rate *big.Int) error

	// UpdateSettlement writes the settled principal and advances last_settled
	UpdateSettlement(ctx context.Context, address string, principal *big.Int, lastSettled time.Time) error

	// UpdatePrincipal overwrites the stored principal
	UpdatePrincipal(ctx context.Context, address string, principal *big.Int) error

	// GetAll returns all accounts
	GetAll(ctx context.Context) ([]*models.Account, error)
}

// LedgerStateRepository defines the interface for the single global state
// row: the current system-wide rate and the total supply.
type LedgerStateRepository interface {
	// Init inserts the state row with the given genesis rate if absent
	Init(ctx context.Context, initialRate *big.Int) error

	// GetGlobalRate returns the current system-wide accrual rate
	GetGlobalRate(ctx context.Context) (*big.Int, error)

	// GetGlobalRateForUpdate returns the rate under a row lock
	GetGlobalRateForUpdate(ctx context.Context) (*big.Int, error)

	// SetGlobalRate overwrites the system-wide accrual rate
	SetGlobalRate(ctx context.Context, rate *big.Int) error

	// GetTotalSupply returns the sum of all stored principal
	GetTotalSupply(ctx context.Context) (*big.Int, error)

	// AddTotalSupply adjusts the total supply by delta (may be negative)
	AddTotalSupply(ctx context.Context, delta *big.Int) error
}

// LedgerEntryRepository defines the interface for principal-change history
type LedgerEntryRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByAddress returns history for a specific account, newest first
	GetByAddress(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error)
}

// RateChangeRepository defines the interface for global-rate history
type RateChangeRepository interface {
	// Record creates a new rate change entry
	Record(ctx context.Context, change *models.RateChange) error

	// List returns rate changes, newest first
	List(ctx context.Context, limit int) ([]*models.RateChange, error)
}

// AllowanceRepository defines the interface for delegated-transfer allowances
type AllowanceRepository interface {
	// Get returns the allowance from owner to spender (zero if unset)
	Get(ctx context.Context, owner, spender string) (*big.Int, error)

	// GetForUpdate returns the allowance under a row lock (zero if unset)
	GetForUpdate(ctx context.Context, owner, spender string) (*big.Int, error)

	// ListByOwner returns all non-zero allowances granted by an owner
	ListByOwner(ctx context.Context, owner string) ([]*models.Allowance, error)

	// Set overwrites the allowance from owner to spender
	Set(ctx context.Context, owner, spender string, amount *big.Int) error
}

// LedgerService defines the interface for balance-mutating ledger
// operations and their read paths. Every mutator settles pending interest
// for the involved accounts before touching principal.
type LedgerService interface {
	// Mint creates amount of principal on to's account. Privileged.
	Mint(ctx context.Context, caller, to string, amount *big.Int) error

	// Burn destroys principal on from's account and returns the amount
	// actually burned. Privileged.
	Burn(ctx context.Context, caller, from string, amount models.Amount) (*big.Int, error)

	// Transfer moves amount from the caller's account to another account and
	// returns the amount actually moved
	Transfer(ctx context.Context, from, to string, amount models.Amount) (*big.Int, error)

	// TransferFrom moves amount out of from's account on behalf of spender,
	// consuming spender's allowance
	TransferFrom(ctx context.Context, spender, from, to string, amount models.Amount) (*big.Int, error)

	// Approve sets spender's allowance over the owner's account
	Approve(ctx context.Context, owner, spender string, amount *big.Int) error

	// Allowance returns spender's remaining allowance over owner's account
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)

	// ListAllowances returns all non-zero allowances granted by an owner
	ListAllowances(ctx context.Context, owner string) ([]*models.Allowance, error)

	// Settle folds pending interest into stored principal and returns the
	// interest credited. Idempotent within the same instant.
	Settle(ctx context.Context, address string) (*big.Int, error)

	// BalanceOf returns the displayed balance including unsettled interest.
	// Pure read: no state is mutated.
	BalanceOf(ctx context.Context, address string) (*big.Int, error)

	// GetPrincipal returns the stored principal excluding unsettled interest
	GetPrincipal(ctx context.Context, address string) (*big.Int, error)

	// GetUserRate returns the account's frozen accrual rate
	GetUserRate(ctx context.Context, address string) (*big.Int, error)

	// GetLastSettled returns the account's last settlement time
	GetLastSettled(ctx context.Context, address string) (time.Time, error)

	// GetTotalSupply returns the total stored principal
	GetTotalSupply(ctx context.Context) (*big.Int, error)

	// GetHistory returns the account's principal-change history, newest first
	GetHistory(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error)
}

// RateService defines the interface for global-rate operations
type RateService interface {
	// SetGlobalRate lowers the system-wide rate. Privileged; increases are
	// rejected with ErrRateIncreaseRejected.
	SetGlobalRate(ctx context.Context, caller string, newRate *big.Int) error

	// GetGlobalRate returns the current system-wide rate
	GetGlobalRate(ctx context.Context) (*big.Int, error)

	// ListRateChanges returns accepted rate changes, newest first
	ListRateChanges(ctx context.Context, limit int) ([]*models.RateChange, error)
}

// Clock supplies "now" to the ledger. The host environment owns time; the
// ledger never measures it itself, which keeps accrual independently
// testable.
type Clock interface {
	Now() time.Time
}

// Role is a capability required for a privileged ledger operation
type Role string

const (
	// RoleMinter may call Mint and Burn (the vault-equivalent collaborator)
	RoleMinter Role = "minter"

	// RoleRateAdmin may lower the global rate
	RoleRateAdmin Role = "rate_admin"
)

// Authorizer answers capability-membership checks for privileged calls.
// Role assignment itself is administered outside this service.
type Authorizer interface {
	HasRole(ctx context.Context, caller string, role Role) (bool, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	LedgerStateRepository() LedgerStateRepository
	LedgerEntryRepository() LedgerEntryRepository
	RateChangeRepository() RateChangeRepository
	AllowanceRepository() AllowanceRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
