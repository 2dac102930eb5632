package repository

import (
	"context"
	"math/big"
	"testing"

	"accrue/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerStateRepository_Init(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerStateRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Init(ctx, big.NewInt(5e10)))

	rate, err := repo.GetGlobalRate(ctx)
	require.NoError(t, err)
	assert.Zero(t, rate.Cmp(big.NewInt(5e10)))

	supply, err := repo.GetTotalSupply(ctx)
	require.NoError(t, err)
	assert.Zero(t, supply.Sign())

	// Re-initializing never overwrites the live rate
	require.NoError(t, repo.Init(ctx, big.NewInt(9e10)))
	rate, err = repo.GetGlobalRate(ctx)
	require.NoError(t, err)
	assert.Zero(t, rate.Cmp(big.NewInt(5e10)))
}

func TestLedgerStateRepository_SetGlobalRate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerStateRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Init(ctx, big.NewInt(5e10)))
	require.NoError(t, repo.SetGlobalRate(ctx, big.NewInt(2e10)))

	rate, err := repo.GetGlobalRateForUpdate(ctx)
	require.NoError(t, err)
	assert.Zero(t, rate.Cmp(big.NewInt(2e10)))
}

func TestLedgerStateRepository_TotalSupply(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerStateRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Init(ctx, big.NewInt(0)))

	require.NoError(t, repo.AddTotalSupply(ctx, testutil.Tokens(1000)))
	require.NoError(t, repo.AddTotalSupply(ctx, testutil.Tokens(500)))
	require.NoError(t, repo.AddTotalSupply(ctx, new(big.Int).Neg(testutil.Tokens(300))))

	supply, err := repo.GetTotalSupply(ctx)
	require.NoError(t, err)
	assert.Zero(t, supply.Cmp(testutil.Tokens(1200)))
}
