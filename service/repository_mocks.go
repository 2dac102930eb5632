package service

import (
	"context"
	"math/big"
	"sync"
	"time"

	"accrue/events"
	"accrue/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByAddress(ctx context.Context, address string) (*models.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetForUpdate(ctx context.Context, address string) (*models.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetOrCreateForUpdate(ctx context.Context, address string, now time.Time) (*models.Account, bool, error) {
	args := m.Called(ctx, address, now)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Account), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepository) SetRate(ctx context.Context, address string, rate *big.Int) error {
	args := m.Called(ctx, address, rate)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateSettlement(ctx context.Context, address string, principal *big.Int, lastSettled time.Time) error {
	args := m.Called(ctx, address, principal, lastSettled)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdatePrincipal(ctx context.Context, address string, principal *big.Int) error {
	args := m.Called(ctx, address, principal)
	return args.Error(0)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

// MockLedgerStateRepository is a mock implementation of LedgerStateRepository
type MockLedgerStateRepository struct {
	mock.Mock
}

func (m *MockLedgerStateRepository) Init(ctx context.Context, initialRate *big.Int) error {
	args := m.Called(ctx, initialRate)
	return args.Error(0)
}

func (m *MockLedgerStateRepository) GetGlobalRate(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerStateRepository) GetGlobalRateForUpdate(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerStateRepository) SetGlobalRate(ctx context.Context, rate *big.Int) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockLedgerStateRepository) GetTotalSupply(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerStateRepository) AddTotalSupply(ctx context.Context, delta *big.Int) error {
	args := m.Called(ctx, delta)
	return args.Error(0)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByAddress(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockRateChangeRepository is a mock implementation of RateChangeRepository
type MockRateChangeRepository struct {
	mock.Mock
}

func (m *MockRateChangeRepository) Record(ctx context.Context, change *models.RateChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockRateChangeRepository) List(ctx context.Context, limit int) ([]*models.RateChange, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RateChange), args.Error(1)
}

// MockAllowanceRepository is a mock implementation of AllowanceRepository
type MockAllowanceRepository struct {
	mock.Mock
}

func (m *MockAllowanceRepository) Get(ctx context.Context, owner, spender string) (*big.Int, error) {
	args := m.Called(ctx, owner, spender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockAllowanceRepository) GetForUpdate(ctx context.Context, owner, spender string) (*big.Int, error) {
	args := m.Called(ctx, owner, spender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockAllowanceRepository) ListByOwner(ctx context.Context, owner string) ([]*models.Allowance, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Allowance), args.Error(1)
}

func (m *MockAllowanceRepository) Set(ctx context.Context, owner, spender string, amount *big.Int) error {
	args := m.Called(ctx, owner, spender, amount)
	return args.Error(0)
}

// capturingPublisher collects events published during a test so assertions
// can inspect what the unit of work would have flushed on commit.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return whatever SetRepositories injected rather than going through Called,
// so tests only set expectations on the lifecycle methods.
type MockUnitOfWork struct {
	mock.Mock

	accountRepo     AccountRepository
	stateRepo       LedgerStateRepository
	entryRepo       LedgerEntryRepository
	rateChangeRepo  RateChangeRepository
	allowanceRepo   AllowanceRepository
	publishedEvents *capturingPublisher
}

// SetRepositories injects the repository mocks this unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	accountRepo AccountRepository,
	stateRepo LedgerStateRepository,
	entryRepo LedgerEntryRepository,
	rateChangeRepo RateChangeRepository,
	allowanceRepo AllowanceRepository,
) {
	m.accountRepo = accountRepo
	m.stateRepo = stateRepo
	m.entryRepo = entryRepo
	m.rateChangeRepo = rateChangeRepo
	m.allowanceRepo = allowanceRepo
	m.publishedEvents = &capturingPublisher{}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) LedgerStateRepository() LedgerStateRepository {
	return m.stateRepo
}

func (m *MockUnitOfWork) LedgerEntryRepository() LedgerEntryRepository {
	return m.entryRepo
}

func (m *MockUnitOfWork) RateChangeRepository() RateChangeRepository {
	return m.rateChangeRepo
}

func (m *MockUnitOfWork) AllowanceRepository() AllowanceRepository {
	return m.allowanceRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.publishedEvents
}

// PublishedEvents returns the events published through this unit of work
func (m *MockUnitOfWork) PublishedEvents() []events.Event {
	return m.publishedEvents.Events()
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
