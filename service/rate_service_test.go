package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"accrue/events"
	"accrue/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRateService_SetGlobalRate_Lower(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockStateRepo := new(MockLedgerStateRepository)
	mockRateChangeRepo := new(MockRateChangeRepository)
	mockUoW.SetRepositories(new(MockAccountRepository), mockStateRepo, new(MockLedgerEntryRepository), mockRateChangeRepo, new(MockAllowanceRepository))

	service := NewRateService(mockFactory, NewStaticAuthorizer(nil, []string{"governor"}))

	oldRate := big.NewInt(5e10)
	newRate := big.NewInt(2e10)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockStateRepo.On("GetGlobalRateForUpdate", ctx).Return(oldRate, nil)
	mockStateRepo.On("SetGlobalRate", ctx, newRate).Return(nil)
	mockRateChangeRepo.On("Record", ctx, mock.MatchedBy(func(c *models.RateChange) bool {
		return c.OldRate.Cmp(oldRate) == 0 &&
			c.NewRate.Cmp(newRate) == 0 &&
			c.ChangedBy == "governor"
	})).Return(nil)

	err := service.SetGlobalRate(ctx, "governor", newRate)
	require.NoError(t, err)

	published := mockUoW.PublishedEvents()
	require.Len(t, published, 1)
	changed, ok := published[0].(events.RateChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "governor", changed.ChangedBy)
	assert.Zero(t, changed.OldRate.Cmp(oldRate))
	assert.Zero(t, changed.NewRate.Cmp(newRate))

	mockStateRepo.AssertExpectations(t)
	mockRateChangeRepo.AssertExpectations(t)
}

func TestRateService_SetGlobalRate_IncreaseRejected(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockStateRepo := new(MockLedgerStateRepository)
	mockUoW.SetRepositories(new(MockAccountRepository), mockStateRepo, new(MockLedgerEntryRepository), new(MockRateChangeRepository), new(MockAllowanceRepository))

	service := NewRateService(mockFactory, NewStaticAuthorizer(nil, []string{"governor"}))

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockStateRepo.On("GetGlobalRateForUpdate", ctx).Return(big.NewInt(2e10), nil)

	err := service.SetGlobalRate(ctx, "governor", big.NewInt(5e10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateIncreaseRejected))

	// Setting the current rate again is not an increase
	mockUoW.On("Commit").Return(nil)
	mockStateRepo.On("SetGlobalRate", ctx, mock.Anything).Return(nil)
	mockRateChangeRepo := mockUoW.RateChangeRepository().(*MockRateChangeRepository)
	mockRateChangeRepo.On("Record", ctx, mock.Anything).Return(nil)

	err = service.SetGlobalRate(ctx, "governor", big.NewInt(2e10))
	require.NoError(t, err)
}

func TestRateService_SetGlobalRate_Unauthorized(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewRateService(mockFactory, NewStaticAuthorizer(nil, []string{"governor"}))

	err := service.SetGlobalRate(ctx, "mallory", big.NewInt(1e10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	mockFactory.AssertNotCalled(t, "Create")
}

func TestRateService_SetGlobalRate_RejectsNegative(t *testing.T) {
	ctx := context.Background()

	service := NewRateService(new(MockUnitOfWorkFactory), NewStaticAuthorizer(nil, []string{"governor"}))

	err := service.SetGlobalRate(ctx, "governor", big.NewInt(-1))
	require.Error(t, err)

	err = service.SetGlobalRate(ctx, "governor", nil)
	require.Error(t, err)
}

func TestRateService_GetGlobalRate(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockStateRepo := new(MockLedgerStateRepository)
	mockUoW.SetRepositories(new(MockAccountRepository), mockStateRepo, new(MockLedgerEntryRepository), new(MockRateChangeRepository), new(MockAllowanceRepository))

	service := NewRateService(mockFactory, NewStaticAuthorizer(nil, nil))

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockStateRepo.On("GetGlobalRate", ctx).Return(big.NewInt(5e10), nil)

	rate, err := service.GetGlobalRate(ctx)
	require.NoError(t, err)
	assert.Zero(t, rate.Cmp(big.NewInt(5e10)))
}
