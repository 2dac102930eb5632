package service

import (
	"context"
	"math/big"
	"time"

	"accrue/models"

	"github.com/stretchr/testify/mock"
)

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Mint(ctx context.Context, caller, to string, amount *big.Int) error {
	args := m.Called(ctx, caller, to, amount)
	return args.Error(0)
}

func (m *MockLedgerService) Burn(ctx context.Context, caller, from string, amount models.Amount) (*big.Int, error) {
	args := m.Called(ctx, caller, from, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) Transfer(ctx context.Context, from, to string, amount models.Amount) (*big.Int, error) {
	args := m.Called(ctx, from, to, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) TransferFrom(ctx context.Context, spender, from, to string, amount models.Amount) (*big.Int, error) {
	args := m.Called(ctx, spender, from, to, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) Approve(ctx context.Context, owner, spender string, amount *big.Int) error {
	args := m.Called(ctx, owner, spender, amount)
	return args.Error(0)
}

func (m *MockLedgerService) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	args := m.Called(ctx, owner, spender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) ListAllowances(ctx context.Context, owner string) ([]*models.Allowance, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Allowance), args.Error(1)
}

func (m *MockLedgerService) Settle(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) GetPrincipal(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) GetUserRate(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) GetLastSettled(ctx context.Context, address string) (time.Time, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockLedgerService) GetTotalSupply(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockLedgerService) GetHistory(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockRateService is a mock implementation of RateService
type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) SetGlobalRate(ctx context.Context, caller string, newRate *big.Int) error {
	args := m.Called(ctx, caller, newRate)
	return args.Error(0)
}

func (m *MockRateService) GetGlobalRate(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockRateService) ListRateChanges(ctx context.Context, limit int) ([]*models.RateChange, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RateChange), args.Error(1)
}
