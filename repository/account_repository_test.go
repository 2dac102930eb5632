package repository

import (
	"context"
	"math/big"
	"testing"
	"time"

	"accrue/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_GetByAddress(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unknown address returns nil", func(t *testing.T) {
		account, err := repo.GetByAddress(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("returns stored account", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		created, wasCreated, err := repo.GetOrCreateForUpdate(ctx, "alice", now)
		require.NoError(t, err)
		require.True(t, wasCreated)
		assert.Zero(t, created.Principal.Sign())
		assert.Zero(t, created.Rate.Sign())

		account, err := repo.GetByAddress(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "alice", account.Address)
		assert.Equal(t, now, account.LastSettled.UTC())
	})
}

func TestAccountRepository_GetOrCreateForUpdate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("creates on first sight", func(t *testing.T) {
		account, created, err := repo.GetOrCreateForUpdate(ctx, "alice", now)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Zero(t, account.Principal.Sign())
	})

	t.Run("returns existing on second call", func(t *testing.T) {
		require.NoError(t, repo.UpdatePrincipal(ctx, "alice", testutil.Tokens(42)))

		account, created, err := repo.GetOrCreateForUpdate(ctx, "alice", now.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Zero(t, account.Principal.Cmp(testutil.Tokens(42)))
		// The existing settlement time is untouched
		assert.Equal(t, now, account.LastSettled.UTC())
	})
}

func TestAccountRepository_Updates(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	_, _, err := repo.GetOrCreateForUpdate(ctx, "alice", now)
	require.NoError(t, err)

	t.Run("set rate", func(t *testing.T) {
		rate := big.NewInt(5e10)
		require.NoError(t, repo.SetRate(ctx, "alice", rate))

		account, err := repo.GetByAddress(ctx, "alice")
		require.NoError(t, err)
		assert.Zero(t, account.Rate.Cmp(rate))
	})

	t.Run("update principal preserves last settled", func(t *testing.T) {
		require.NoError(t, repo.UpdatePrincipal(ctx, "alice", testutil.Tokens(7)))

		account, err := repo.GetByAddress(ctx, "alice")
		require.NoError(t, err)
		assert.Zero(t, account.Principal.Cmp(testutil.Tokens(7)))
		assert.Equal(t, now, account.LastSettled.UTC())
	})

	t.Run("update settlement advances clock", func(t *testing.T) {
		later := now.Add(90 * time.Second)
		settled := testutil.Tokens(8)
		require.NoError(t, repo.UpdateSettlement(ctx, "alice", settled, later))

		account, err := repo.GetByAddress(ctx, "alice")
		require.NoError(t, err)
		assert.Zero(t, account.Principal.Cmp(settled))
		assert.Equal(t, later, account.LastSettled.UTC())
	})

	t.Run("updates to unknown accounts fail", func(t *testing.T) {
		err := repo.UpdatePrincipal(ctx, "nobody", testutil.Tokens(1))
		require.Error(t, err)

		err = repo.SetRate(ctx, "nobody", big.NewInt(1))
		require.Error(t, err)
	})
}

func TestAccountRepository_LargeValues(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, _, err := repo.GetOrCreateForUpdate(ctx, "whale", time.Now().UTC())
	require.NoError(t, err)

	// 2^256-1 must round-trip through the NUMERIC(78,0) column intact
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	require.NoError(t, repo.UpdatePrincipal(ctx, "whale", max))

	account, err := repo.GetByAddress(ctx, "whale")
	require.NoError(t, err)
	assert.Zero(t, account.Principal.Cmp(max))
}

func TestAccountRepository_GetAll(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, address := range []string{"alice", "bob", "carol"} {
		_, _, err := repo.GetOrCreateForUpdate(ctx, address, now)
		require.NoError(t, err)
	}

	accounts, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 3)
}
